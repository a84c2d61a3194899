// Package scheduler runs the daemon: cron deliveries for subscribed
// profiles and answers to chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"woflstrology/internal/metrics"
	"woflstrology/internal/model"
	"woflstrology/internal/notifier"
	"woflstrology/internal/pipeline"
	"woflstrology/internal/profile"
	"woflstrology/internal/recorder"
	"woflstrology/internal/report"
)

// Generator produces readings.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Reading, error)
}

// Profiles is the saved-profile store.
type Profiles interface {
	Get(name string) (profile.Profile, error)
	List() []profile.Profile
	Subscribed() []profile.Profile
	SetLocation(name string, loc model.Location) error
}

// Sender delivers Markdown to a chat.
type Sender interface {
	Deliver(ctx context.Context, chatID, markdown string, maxRetries int) error
}

const sendRetries = 3

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Generator Generator
	Profiles  Profiles
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	ChatID    string // default target for profiles without their own chat
	Ctx       context.Context
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, gen Generator, profiles Profiles, sender Sender, rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Generator: gen,
		Profiles:  profiles,
		Notifier:  sender,
		Recorder:  rec,
		Metrics:   m,
		Logger:    logger,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the daily horoscope and the weekly transit digest.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.Logger.Info("running daily task")
	s.deliverAll(report.Daily)
}

func (s *Scheduler) weeklyTask() {
	s.Logger.Info("running weekly task")
	s.deliverAll(report.Transits)
}

func (s *Scheduler) deliverAll(kind report.Kind) {
	subs := s.Profiles.Subscribed()
	if len(subs) == 0 {
		s.Logger.Info("no subscribed profiles", zap.String("kind", string(kind)))
		return
	}
	for _, p := range subs {
		if s.Ctx.Err() != nil {
			return
		}
		if err := s.deliver(p, kind); err != nil {
			s.Logger.Error("scheduled delivery failed",
				zap.String("profile", p.Name), zap.String("kind", string(kind)), zap.Error(err))
		}
	}
}

// deliver generates one reading for p and pushes it to the profile's chat.
func (s *Scheduler) deliver(p profile.Profile, kind report.Kind) error {
	reading, err := s.generate(s.Ctx, p, pipeline.Request{Kind: kind})
	if err != nil {
		return err
	}
	target := p.ChatID
	if target == "" {
		target = s.ChatID
	}
	sendErr := s.Notifier.Deliver(s.Ctx, target, reading.Text, sendRetries)

	evt := &recorder.DeliveryEvent{ReadingID: reading.ID, Channel: "telegram", Target: target, OK: sendErr == nil}
	if sendErr != nil {
		evt.Error = sendErr.Error()
	}
	if err := s.Recorder.RecordDelivery(evt); err != nil {
		s.Logger.Error("record delivery", zap.Error(err))
	}
	s.Metrics.Delivery(sendErr == nil)
	return sendErr
}

// generate fills req with the profile's birth data, and caches the resolved
// birthplace the first time it is found.
func (s *Scheduler) generate(ctx context.Context, p profile.Profile, req pipeline.Request) (*pipeline.Reading, error) {
	q, err := p.Query()
	if err != nil {
		return nil, err
	}
	req.Birth = q
	req.At = s.Now()
	reading, err := s.Generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.Location == nil && reading.Natal != nil && !reading.Location.Fallback {
		if err := s.Profiles.SetLocation(p.Name, reading.Location); err != nil {
			s.Logger.Warn("could not cache birthplace", zap.String("profile", p.Name), zap.Error(err))
		}
	}
	return reading, nil
}

const helpText = `🌟 **woflstrology commands**

• /daily [profile]: today's horoscope
• /natal <profile>: birth chart reading
• /transits <profile>: transits to the birth chart
• /forecast <profile>: upcoming slow-planet transits
• /compat <profile> <sign>: sun sign compatibility
• /synastry <profile> <other profile>: chart comparison
• /relocate <profile> <place>: relocation chart
• /solar-return, /progressions, /asteroids <profile>
• /profiles: saved profiles
• /history: recent readings`

// authorized reports whether chatID is the configured chat or belongs to a
// saved profile.
func (s *Scheduler) authorized(chatID string) bool {
	if chatID == "" {
		return false
	}
	if chatID == s.ChatID {
		return true
	}
	for _, p := range s.Profiles.List() {
		if p.ChatID == chatID {
			return true
		}
	}
	return false
}

// HandleCommand processes a chat command and returns a Markdown reply.
// Commands from unknown chats get no reply.
func (s *Scheduler) HandleCommand(ctx context.Context, chatID, command string) string {
	if !s.authorized(chatID) {
		s.Logger.Warn("command from unknown chat ignored", zap.String("chat", chatID), zap.String("command", command))
		return ""
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i] // /daily@SomeBot
	}
	args := fields[1:]

	switch name {
	case "profiles":
		return notifier.FormatProfiles(s.Profiles.List())
	case "history":
		events, err := s.Recorder.Recent(5)
		if err != nil {
			return "❌ " + err.Error()
		}
		return notifier.FormatHistory(events)
	case "start", "help":
		return helpText
	}

	kind, err := report.ParseKind(name)
	if err != nil {
		return helpText
	}
	text, err := s.commandReading(ctx, kind, args)
	if err != nil {
		s.Logger.Warn("command failed", zap.String("chat", chatID), zap.String("command", command), zap.Error(err))
		return "❌ " + userMessage(err)
	}
	return text
}

func (s *Scheduler) commandReading(ctx context.Context, kind report.Kind, args []string) (string, error) {
	if len(args) == 0 {
		if kind != report.Daily {
			return "", fmt.Errorf("usage: /%s <profile>", kind)
		}
		reading, err := s.Generator.Generate(ctx, pipeline.Request{Kind: kind, At: s.Now()})
		if err != nil {
			return "", err
		}
		return reading.Text, nil
	}

	p, err := s.Profiles.Get(args[0])
	if err != nil {
		return "", err
	}
	req := pipeline.Request{Kind: kind}
	rest := strings.Join(args[1:], " ")
	switch kind {
	case report.Compatibility:
		req.PartnerSign = rest
	case report.Relocation:
		req.RelocateTo = rest
	case report.Synastry:
		other, err := s.Profiles.Get(rest)
		if err != nil {
			return "", err
		}
		q, err := other.Query()
		if err != nil {
			return "", err
		}
		req.Partner = &q
	}
	reading, err := s.generate(ctx, p, req)
	if err != nil {
		return "", err
	}
	return reading.Text, nil
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		return "No profile by that name. Try /profiles."
	case errors.Is(err, report.ErrMissingChart):
		return "That reading needs more information. Try /help."
	case errors.Is(err, pipeline.ErrRelocationRequired):
		return "Tell me where to relocate to, e.g. /relocate ada Tokyo."
	}
	return err.Error()
}
