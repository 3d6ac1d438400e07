package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"GTMEngine/internal/app"
	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/logging"
	"GTMEngine/internal/usecase"
)

const usage = `usage: gtmengine <command> [flags]

commands:
  serve          run scheduled feed ingestion and the metrics endpoint
  seed           insert the demo signals
  ingest         run one connector: -connector rss|github -input <url|owner/repo>
  ingest-feeds   run every configured feed once
  signals        list signals: [-status pending] [-limit 50]
  classify       classify a signal angle: -id <signal>
  signal-status  set a signal status: -id <signal> -status reviewed
  convert        convert a signal into a lead: -signal <id> -name <name> [-role] [-company]
  leads          list leads
  lead           show the outreach package of a lead: -id <lead>
  contact        replace lead contact info: -id <lead> [-email] [-linkedin] (omitted values clear)
  pipeline       set lead pipeline status: -id <lead> -status contacted
  score          score a lead against the ICP: -id <lead>
  enrich         enrich a lead via Apollo: -id <lead>
  draft          generate drafts: -lead <id> [-channel email|linkedin] [-mode template|angle|llm] [-variant]
  send           email a draft: -draft <id>
  mark-sent      record a draft sent outside the engine: -draft <id>
  follow-ups     plan the follow-up sequence: -lead <id>
  send-planned   email a planned touchpoint: -id <touchpoint>
  touchpoints    list lead touchpoints: -lead <id>
  sync           sync a lead into Attio: -lead <id>
  context-add    store a context doc: -type icp|tone|signals -file <path> [-title]
  context-list   list context docs: -type icp|tone|signals
  context-use    activate a context doc: -id <doc>
  rate-limit     show the email send budget
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	err = run(ctx, application, os.Args[1], os.Args[2:], os.Stdout)
	_ = application.Close()
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.Application, command string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	var (
		id        = fs.String("id", "", "record id")
		leadID    = fs.String("lead", "", "lead id")
		draftID   = fs.String("draft", "", "draft id")
		signalID  = fs.String("signal", "", "signal id")
		status    = fs.String("status", "", "status value")
		limit     = fs.Int("limit", 0, "max results")
		conn      = fs.String("connector", "rss", "connector name")
		input     = fs.String("input", "", "connector input")
		name      = fs.String("name", "", "lead name")
		role      = fs.String("role", "", "lead role")
		company   = fs.String("company", "", "lead company")
		email     = fs.String("email", "", "lead email")
		linkedin  = fs.String("linkedin", "", "lead LinkedIn URL")
		channel   = fs.String("channel", string(domain.ChannelEmail), "draft channel")
		mode      = fs.String("mode", "angle", "draft mode: template, angle or llm")
		variant   = fs.String("variant", string(domain.VariantShortColdOpener), "template variant")
		docType   = fs.String("type", "", "context doc type")
		docTitle  = fs.String("title", "", "context doc title")
		docSource = fs.String("file", "", "context doc markdown file")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch command {
	case "serve":
		return a.Run(ctx)
	case "seed":
		return printJSON(out)(a.Pipeline.Seed(ctx))
	case "ingest":
		return printJSON(out)(a.Pipeline.Ingest(ctx, *conn, *input))
	case "ingest-feeds":
		reports, err := a.Pipeline.IngestFeeds(ctx)
		if perr := printJSON(out)(reports, nil); perr != nil {
			return perr
		}
		return err
	case "signals":
		filter := domain.SignalFilter{Limit: *limit}
		if *status != "" {
			s, err := domain.ParseSignalStatus(*status)
			if err != nil {
				return err
			}
			filter.Status = &s
		}
		return printJSON(out)(a.Signals.List(ctx, filter))
	case "classify":
		return printJSON(out)(a.Signals.ClassifyAngle(ctx, *id))
	case "signal-status":
		return a.Signals.UpdateStatus(ctx, *id, domain.SignalStatus(*status))
	case "convert":
		return printJSON(out)(a.Leads.ConvertSignal(ctx, *signalID, usecase.ConvertInput{
			Name:    *name,
			Role:    domain.StringPtr(*role),
			Company: domain.StringPtr(*company),
		}))
	case "leads":
		return printJSON(out)(a.Leads.List(ctx))
	case "lead":
		return printJSON(out)(a.Leads.OutreachPackage(ctx, *id))
	case "contact":
		return printJSON(out)(a.Leads.UpdateContactInfo(ctx, *id, email, linkedin))
	case "pipeline":
		return printJSON(out)(a.Leads.UpdatePipelineStatus(ctx, *id, domain.PipelineStatus(*status)))
	case "score":
		return printJSON(out)(a.Leads.Score(ctx, *id))
	case "enrich":
		return printJSON(out)(a.Leads.Enrich(ctx, *id))
	case "draft":
		return draft(ctx, a, out, *leadID, domain.Channel(*channel), *mode, domain.Variant(*variant))
	case "send":
		return printJSON(out)(a.Outreach.SendEmailDraft(ctx, *draftID))
	case "mark-sent":
		return printJSON(out)(a.Outreach.MarkDraftSent(ctx, *draftID))
	case "follow-ups":
		return printJSON(out)(a.Outreach.GenerateFollowUps(ctx, *leadID))
	case "send-planned":
		return printJSON(out)(a.Outreach.SendPlannedTouchpoint(ctx, *id))
	case "touchpoints":
		return printJSON(out)(a.Outreach.Touchpoints(ctx, *leadID))
	case "sync":
		return printJSON(out)(a.CRM.SyncLead(ctx, *leadID))
	case "context-add":
		raw, err := os.ReadFile(*docSource)
		if err != nil {
			return fmt.Errorf("read context doc: %w", err)
		}
		return printJSON(out)(a.ContextDocs.Create(ctx, domain.ContextDocType(*docType), domain.StringPtr(*docTitle), string(raw)))
	case "context-list":
		return printJSON(out)(a.ContextDocs.List(ctx, domain.ContextDocType(*docType)))
	case "context-use":
		return a.ContextDocs.SetActive(ctx, *id)
	case "rate-limit":
		return printJSON(out)(a.RateLimit(), nil)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

func draft(ctx context.Context, a *app.Application, out io.Writer, leadID string, channel domain.Channel, mode string, variant domain.Variant) error {
	switch mode {
	case "template":
		return printJSON(out)(a.Drafts.CreateTemplateDraft(ctx, leadID, channel, variant))
	case "angle":
		return printJSON(out)(a.Drafts.CreateAngleDrafts(ctx, leadID, channel))
	case "llm":
		return printJSON(out)(a.Drafts.CreateLLMDrafts(ctx, leadID, channel))
	default:
		return errors.New("mode must be template, angle or llm")
	}
}

// printJSON adapts a (value, error) result into indented JSON on out.
func printJSON(out io.Writer) func(any, error) error {
	return func(v any, err error) error {
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
