package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/contracts"
)

// ViewSource lists derived contract views.
type ViewSource interface {
	Views(ctx context.Context) ([]contracts.View, error)
}

// SettingsStore loads and saves notification settings.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}

// LogStore claims (document, day) slots.
type LogStore interface {
	Record(ctx context.Context, kind string, id int64, day calendar.Date, daysRemaining int) error
	Release(ctx context.Context, kind string, id int64, day calendar.Date) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Message is one queued e-mail. Key is stable for a (contract, day, recipient)
// triple so a retried scan re-queues nothing already accepted.
type Message struct {
	Key     string
	To      string
	Subject string
	Body    string
}

// Mailer hands messages to the delivery collaborator. Send must treat a Key it
// has already accepted as delivered.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Alert is a contract that crossed a threshold today.
type Alert struct {
	ContractID    int64
	Code          string
	DaysRemaining int
	EndDate       calendar.Date
}

// Result summarises a scan.
type Result struct {
	Day       calendar.Date
	Evaluated int
	Alerts    []Alert
	Skipped   int
	Messages  int
}

// Scanner evaluates every contract once per day.
type Scanner struct {
	views     ViewSource
	settings  SettingsStore
	log       LogStore
	mailer    Mailer
	clock     calendar.Clock
	logger    *slog.Logger
	retention time.Duration
}

// NewScanner constructs a scanner. retention <= 0 disables log cleanup.
func NewScanner(views ViewSource, settings SettingsStore, log LogStore, mailer Mailer, clock calendar.Clock, logger *slog.Logger, retention time.Duration) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &Scanner{views: views, settings: settings, log: log, mailer: mailer, clock: clock, logger: logger, retention: retention}
}

// Scan finds due contracts, claims their slot for today and queues one message
// per recipient. Contracts already claimed today are skipped.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	thresholds := settings.Thresholds
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	views, err := s.views.Views(ctx)
	if err != nil {
		return Result{}, err
	}
	result := Result{Day: s.clock.Today(), Evaluated: len(views)}
	for _, v := range views {
		if !Due(v, thresholds) {
			continue
		}
		alert := Alert{ContractID: v.ID, Code: v.Code, DaysRemaining: v.DaysRemaining, EndDate: v.EffectiveEndDate}
		err := s.log.Record(ctx, DocumentContract, v.ID, result.Day, v.DaysRemaining)
		if errors.Is(err, ErrAlreadyNotified) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, err
		}
		sent, err := s.deliver(ctx, alert, result.Day, settings.Recipients)
		if err != nil {
			if relErr := s.log.Release(ctx, DocumentContract, v.ID, result.Day); relErr != nil {
				s.logger.Warn("release notification claim", slog.Any("error", relErr), slog.Int64("contract_id", v.ID))
			}
			return result, err
		}
		result.Messages += sent
		result.Alerts = append(result.Alerts, alert)
		s.logger.Info("contract expiry alert",
			slog.Int64("contract_id", v.ID),
			slog.String("code", v.Code),
			slog.Int("days_remaining", v.DaysRemaining),
			slog.Int("recipients", sent),
		)
	}
	if s.retention > 0 {
		if err := s.log.Cleanup(ctx, s.retention); err != nil {
			s.logger.Warn("cleanup notification log", slog.Any("error", err))
		}
	}
	return result, nil
}

func (s *Scanner) deliver(ctx context.Context, alert Alert, day calendar.Date, recipients []string) (int, error) {
	if s.mailer == nil || len(recipients) == 0 {
		return 0, nil
	}
	msg := compose(alert)
	for _, to := range recipients {
		msg.To = to
		msg.Key = MessageKey(DocumentContract, alert.ContractID, day, to)
		if err := s.mailer.Send(ctx, msg); err != nil {
			return 0, fmt.Errorf("notifications: queue mail for contract %d: %w", alert.ContractID, err)
		}
	}
	return len(recipients), nil
}

// MessageKey identifies one alert e-mail.
func MessageKey(kind string, id int64, day calendar.Date, to string) string {
	return fmt.Sprintf("%s:%d:%s:%s", kind, id, day.ISO(), strings.ToLower(strings.TrimSpace(to)))
}

func compose(a Alert) Message {
	return Message{
		Subject: fmt.Sprintf("Contrato %s vence em %d dias", a.Code, a.DaysRemaining),
		Body: fmt.Sprintf("O contrato %s tem vencimento em %s (%d dias restantes). Verifique a necessidade de aditivo de prazo.",
			a.Code, a.EndDate.String(), a.DaysRemaining),
	}
}
