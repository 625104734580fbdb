package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"regionbank/events"
	"regionbank/models"
)

// PayoutPeriod is the repeat interval of every payout timer
const PayoutPeriod = 24 * time.Hour

// TimerFactory starts a recurring timer that calls fire after first and then
// every period. The returned function cancels it.
type TimerFactory func(first, period time.Duration, fire func()) (cancel func())

// RealTimers is the TimerFactory backed by the runtime clock
func RealTimers(first, period time.Duration, fire func()) func() {
	stop := make(chan struct{})
	go func() {
		timer := time.NewTimer(first)
		defer timer.Stop()
		for {
			select {
			case <-stop:
				return
			case <-timer.C:
				fire()
				timer.Reset(period)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}

// PayoutHandler processes a captured batch of banks
type PayoutHandler interface {
	Process(ctx context.Context, trigger PayoutTrigger) *CycleResult
}

// SchedulerOption customizes a SchedulerService
type SchedulerOption func(*SchedulerService)

// WithTimerFactory replaces the timer implementation
func WithTimerFactory(timers TimerFactory) SchedulerOption {
	return func(s *SchedulerService) { s.timers = timers }
}

// WithClock replaces the time source
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *SchedulerService) { s.now = now }
}

// WithEventPublisher publishes a PayoutCompletedEvent after each processed firing
func WithEventPublisher(publisher EventPublisher) SchedulerOption {
	return func(s *SchedulerService) { s.publisher = publisher }
}

// SchedulerService keeps one recurring timer per distinct payout time across all
// banks. Firings and reschedules are serialized on the goroutine running Run, which
// is the only goroutine that touches bank and account state.
type SchedulerService struct {
	banks     BankSource
	handler   PayoutHandler
	publisher EventPublisher
	location  *time.Location
	timers    TimerFactory
	now       func() time.Time

	mu        sync.Mutex
	scheduled map[models.TimeOfDay]func()

	fires      chan models.TimeOfDay
	reschedule chan struct{}
	stopped    chan struct{}
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(banks BankSource, handler PayoutHandler, location *time.Location, opts ...SchedulerOption) *SchedulerService {
	if location == nil {
		location = time.UTC
	}
	s := &SchedulerService{
		banks:      banks,
		handler:    handler,
		location:   location,
		timers:     RealTimers,
		now:        time.Now,
		scheduled:  make(map[models.TimeOfDay]func()),
		fires:      make(chan models.TimeOfDay),
		reschedule: make(chan struct{}, 1),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run derives the schedule and then processes firings and reschedule requests
// until ctx is cancelled. A firing in progress always runs to completion.
func (s *SchedulerService) Run(ctx context.Context) {
	defer close(s.stopped)
	defer s.cancelAll()

	if err := s.Reschedule(ctx); err != nil {
		log.WithError(err).Error("Failed to derive initial payout schedule")
	}
	log.Info("Payout scheduler started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Payout scheduler shutting down (context cancelled)...")
			return
		case <-s.reschedule:
			if err := s.Reschedule(ctx); err != nil {
				log.WithError(err).Error("Failed to re-derive payout schedule")
			}
		case t := <-s.fires:
			if !s.isScheduled(t) {
				log.WithField("payout_time", t.String()).Debug("Ignoring firing of unscheduled payout time")
				continue
			}
			s.Fire(ctx, t)
		}
	}
}

// RequestReschedule asks Run to re-derive the schedule. Safe from any goroutine;
// requests made while one is pending are coalesced.
func (s *SchedulerService) RequestReschedule() {
	select {
	case s.reschedule <- struct{}{}:
	default:
	}
}

// HandleBankConfigChanged is an event bus handler that requests a reschedule
func (s *SchedulerService) HandleBankConfigChanged(ctx context.Context, event events.Event) {
	if changed, ok := event.(events.BankConfigChangedEvent); ok {
		log.WithField("bank_id", changed.BankID).Debug("Bank configuration changed, rescheduling payouts")
	}
	s.RequestReschedule()
}

// Reschedule recomputes the distinct payout times of all banks, cancels timers
// for times no longer used and starts timers for new ones
func (s *SchedulerService) Reschedule(ctx context.Context) error {
	banks, err := s.banks.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load banks: %w", err)
	}

	wanted := make(map[models.TimeOfDay]struct{})
	for _, bank := range banks {
		for _, t := range bank.Config.PayoutTimes {
			wanted[t] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for t, cancel := range s.scheduled {
		if _, ok := wanted[t]; !ok {
			cancel()
			delete(s.scheduled, t)
			log.WithField("payout_time", t.String()).Info("Unscheduled payout time")
		}
	}

	now := s.now().In(s.location)
	for t := range wanted {
		if _, ok := s.scheduled[t]; ok {
			continue
		}
		delay := t.NextOccurrence(now).Sub(now)
		s.scheduled[t] = s.timers(delay, PayoutPeriod, s.fireFunc(t))
		log.WithFields(log.Fields{
			"payout_time": t.String(),
			"first_delay": delay.String(),
		}).Info("Scheduled payout time")
	}

	return nil
}

// ScheduledTimes returns the currently scheduled payout times in ascending order
func (s *SchedulerService) ScheduledTimes() []models.TimeOfDay {
	s.mu.Lock()
	defer s.mu.Unlock()

	times := make([]models.TimeOfDay, 0, len(s.scheduled))
	for t := range s.scheduled {
		times = append(times, t)
	}
	models.SortTimes(times)
	return times
}

func (s *SchedulerService) isScheduled(t models.TimeOfDay) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scheduled[t]
	return ok
}

// Fire collects every bank paying out at t and processes them as one batch.
// Banks are loaded fresh so the batch reflects configuration at firing time.
func (s *SchedulerService) Fire(ctx context.Context, t models.TimeOfDay) *CycleResult {
	firedAt := s.now().UTC()

	banks, err := s.banks.LoadAll(ctx)
	if err != nil {
		log.WithField("payout_time", t.String()).WithError(err).Error("Failed to load banks for payout")
		return nil
	}

	batch := make([]*models.Bank, 0, len(banks))
	bankIDs := make([]int64, 0, len(banks))
	for _, bank := range banks {
		if bank.HasPayoutTime(t) {
			batch = append(batch, bank)
			bankIDs = append(bankIDs, bank.ID)
		}
	}
	if len(batch) == 0 {
		log.WithField("payout_time", t.String()).Debug("No banks pay out at this time")
		return nil
	}

	log.WithFields(log.Fields{
		"payout_time": t.String(),
		"banks":       len(batch),
	}).Info("Payout time reached")

	result := s.handler.Process(ctx, PayoutTrigger{
		Time:    t,
		FiredAt: firedAt,
		Banks:   batch,
	})

	if s.publisher != nil && result != nil && !result.Vetoed {
		s.publisher.Publish(events.PayoutCompletedEvent{
			PayoutTime: t,
			FiredAt:    firedAt,
			BankIDs:    bankIDs,
		})
	}
	return result
}

// fireFunc hands a timer firing to the Run goroutine
func (s *SchedulerService) fireFunc(t models.TimeOfDay) func() {
	return func() {
		select {
		case s.fires <- t:
		case <-s.stopped:
		}
	}
}

func (s *SchedulerService) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, cancel := range s.scheduled {
		cancel()
		delete(s.scheduled, t)
	}
}
