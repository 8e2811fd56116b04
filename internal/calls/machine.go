// Package calls drives simulated call sessions through their lifecycle and
// gates them behind the paywall.
package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"companion-platform/internal/capability"
	"companion-platform/internal/monetization"
	"companion-platform/internal/payment"
	"companion-platform/internal/paywall"
	"companion-platform/internal/scheduler"
	"companion-platform/internal/trigger"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("calls: invalid transition")
	ErrMachineClosed     = errors.New("calls: machine closed")
	ErrPaymentInFlight   = errors.New("calls: payment already in flight")
)

// Observer is told about every status change. It runs on the machine's loop
// and must not block.
type Observer interface {
	OnTransition(t Transition)
}

type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// Entitlements credits coins bought during a call.
type Entitlements interface {
	Grant(ctx context.Context, userID string, e payment.Entitlement) error
}

type Options struct {
	UserID string

	Scheduler    scheduler.Config
	PaywallAfter time.Duration

	Clock trigger.Clock
	// Rand picks callers, media and ring delays. It is only used on the loop.
	Rand scheduler.Intn

	Gateway      *capability.Gateway
	Catalog      paywall.Catalog
	Handoff      payment.Handoff
	Entitlements Entitlements
	Navigator    Navigator
	View         paywall.View
	Observers    []Observer
	Logger       *slog.Logger
}

// Machine owns one user's call sessions.
//
// Rules:
//   - All session state is touched only on the machine's loop.
//   - Permission prompts and payment handoffs run off the loop; their results
//     are posted back and dropped when the session moved on in the meantime.
//   - Every transition to ended cancels the monetization timer and the ring
//     scheduler, abandons any payment in flight and releases the capture device.
type Machine struct {
	userID       string
	loop         *trigger.Loop
	clock        trigger.Clock
	rng          scheduler.Intn
	sched        *scheduler.Scheduler
	timer        *monetization.Timer
	paywallAfter time.Duration
	gateway      *capability.Gateway
	presenter    *paywall.Presenter
	handoff      payment.Handoff
	entitlements Entitlements
	nav          Navigator
	observers    []Observer
	log          *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// Loop-owned.
	candidates        []Candidate
	session           *Session
	pendingTxn        string
	checkoutPending   bool
	permissionPending bool
}

func NewMachine(opts Options) (*Machine, error) {
	if opts.UserID == "" {
		return nil, errors.New("calls: user id is required")
	}
	if opts.Gateway == nil || opts.Handoff == nil || opts.Navigator == nil {
		return nil, errors.New("calls: gateway, handoff and navigator are required")
	}
	if opts.Clock == nil {
		opts.Clock = trigger.System
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.PaywallAfter <= 0 {
		opts.PaywallAfter = monetization.DefaultThreshold
	}
	if opts.Catalog == nil {
		opts.Catalog = paywall.DefaultCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	presenter, err := paywall.NewPresenter(opts.Catalog, opts.View)
	if err != nil {
		return nil, err
	}

	loop := trigger.NewLoop(64)
	sched, err := scheduler.New(opts.Scheduler, loop, opts.Clock, opts.Rand)
	if err != nil {
		loop.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Machine{
		userID:       opts.UserID,
		loop:         loop,
		clock:        opts.Clock,
		rng:          opts.Rand,
		sched:        sched,
		timer:        monetization.NewTimer(loop, opts.Clock),
		paywallAfter: opts.PaywallAfter,
		gateway:      opts.Gateway,
		presenter:    presenter,
		handoff:      opts.Handoff,
		entitlements: opts.Entitlements,
		nav:          opts.Navigator,
		observers:    opts.Observers,
		log:          opts.Logger.With("user_id", opts.UserID),
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

func (m *Machine) UserID() string { return m.userID }

// exec runs fn on the loop and returns its error.
func (m *Machine) exec(ctx context.Context, fn func() error) error {
	var out error
	err := m.loop.Do(ctx, func() { out = fn() })
	if errors.Is(err, trigger.ErrLoopStopped) {
		return ErrMachineClosed
	}
	if err != nil {
		return err
	}
	return out
}

// Focus is called when the home screen gains focus. It replaces the ring
// candidates and re-arms the scheduler.
func (m *Machine) Focus(ctx context.Context, candidates []Candidate) (time.Duration, error) {
	var delay time.Duration
	err := m.exec(ctx, func() error {
		m.candidates = append([]Candidate(nil), candidates...)
		delay = m.sched.Focus(m.onRing)
		return nil
	})
	return delay, err
}

// Blur is called when the home screen loses focus.
func (m *Machine) Blur(ctx context.Context) error {
	return m.exec(ctx, func() error {
		m.sched.Blur()
		return nil
	})
}

func (m *Machine) onRing() {
	if m.session != nil && m.session.Status.Live() {
		m.log.Debug("ring ignored, session live", "session_id", m.session.ID)
		return
	}
	if len(m.candidates) == 0 {
		m.log.Debug("ring ignored, no candidates")
		return
	}
	c := m.candidates[m.rng.Intn(len(m.candidates))]

	m.session = &Session{
		ID:        uuid.NewString(),
		UserID:    m.userID,
		Status:    StatusRinging,
		Caller:    c.Caller,
		MediaPool: append([]string(nil), c.MediaPool...),
		MicMuted:  true,
		SpeakerOn: true,
		StartedAt: m.clock.Now().UTC(),
	}
	m.pendingTxn = ""
	m.checkoutPending = false
	m.permissionPending = false

	m.nav.EnterCallScreen(CallScreenParams{
		SessionID:     m.session.ID,
		MediaPool:     m.session.MediaPool,
		CallerName:    c.Caller.Name,
		CallerImage:   c.Caller.ImageURL,
		BackgroundURL: c.Caller.BackgroundURL,
	})
	// An ended session is gone from the device; every ring starts from idle.
	m.notify(StatusIdle, StatusRinging, ReasonRang, 0)
}

// Accept answers a ringing call.
func (m *Machine) Accept(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.exec(ctx, func() error {
		if err := m.require("accept", StatusRinging); err != nil {
			return err
		}
		s := m.session
		if len(s.MediaPool) == 0 {
			s.Placeholder = true
		} else {
			s.Media = s.MediaPool[m.rng.Intn(len(s.MediaPool))]
		}
		s.Status = StatusActive
		s.ActiveSince = m.clock.Now().UTC()
		if err := m.timer.Start(m.paywallAfter, m.paywallDue(s.ID)); err != nil {
			return err
		}
		m.notify(StatusRinging, StatusActive, ReasonAccepted, 0)
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

// Decline rejects a ringing call.
func (m *Machine) Decline(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if err := m.require("decline", StatusRinging); err != nil {
			return err
		}
		m.end(ReasonDeclined, true)
		return nil
	})
}

// EndCall hangs up an active call.
func (m *Machine) EndCall(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if err := m.require("end", StatusActive); err != nil {
			return err
		}
		m.end(ReasonHangup, true)
		return nil
	})
}

// Teardown ends whatever session is live, typically because the call screen
// was left. It is a no-op when nothing is live.
func (m *Machine) Teardown(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if m.session != nil && m.session.Status.Live() {
			m.end(ReasonTeardown, false)
		}
		return nil
	})
}

func (m *Machine) paywallDue(sessionID string) func() {
	return func() {
		if m.session == nil || m.session.ID != sessionID || m.session.Status != StatusActive {
			return
		}
		m.session.Status = StatusPaywallPending
		m.session.PaywallCount++
		m.presenter.Present()
		m.notify(StatusActive, StatusPaywallPending, ReasonPaywallDue, 0)
	}
}

// SelectPackage starts the purchase of a paywall package. It returns once the
// checkout payload is ready; the payment outcome is folded in later.
func (m *Machine) SelectPackage(ctx context.Context, packageID string, customer payment.Customer) (PaymentScreenParams, error) {
	var (
		order   payment.Order
		session string
	)
	err := m.exec(ctx, func() error {
		if err := m.require("select", StatusPaywallPending); err != nil {
			return err
		}
		if m.checkoutPending || m.pendingTxn != "" {
			return ErrPaymentInFlight
		}
		ev, err := m.presenter.Choose(packageID)
		if err != nil {
			return err
		}
		m.checkoutPending = true
		session = m.session.ID
		order = payment.Order{Intent: *ev.Intent, UserID: m.userID, SessionID: session, Customer: customer}
		return nil
	})
	if err != nil {
		return PaymentScreenParams{}, err
	}

	pending, initErr := m.handoff.Initiate(ctx, order)

	var params PaymentScreenParams
	err = m.exec(context.Background(), func() error {
		m.checkoutPending = false
		stale := m.session == nil || m.session.ID != session || m.session.Status != StatusPaywallPending
		if initErr != nil {
			if !stale {
				m.presenter.Present()
			}
			return fmt.Errorf("calls: initiate payment: %w", initErr)
		}
		if stale {
			m.handoff.Abandon(pending.TransactionID, ReasonTeardown)
			return fmt.Errorf("%w: session changed during checkout", ErrInvalidTransition)
		}
		m.pendingTxn = pending.TransactionID
		params = PaymentScreenParams{
			SessionID:     session,
			TransactionID: pending.TransactionID,
			Amount:        order.Amount,
			Coins:         order.Coins,
			Checkout:      pending.Checkout,
		}
		m.nav.EnterPaymentScreen(params)
		m.watchPayment(session, pending)
		return nil
	})
	if errors.Is(err, ErrMachineClosed) && initErr == nil {
		m.handoff.Abandon(pending.TransactionID, ReasonClosed)
	}
	return params, err
}

func (m *Machine) watchPayment(sessionID string, p *payment.Pending) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		var r payment.Result
		select {
		case r = <-p.Done():
		case <-m.ctx.Done():
			return
		}
		if r.Outcome == payment.OutcomeSuccess && r.Entitlement != nil && m.entitlements != nil {
			if err := m.entitlements.Grant(m.ctx, m.userID, *r.Entitlement); err != nil {
				m.log.Error("grant entitlement failed", "transaction_id", r.TransactionID, "err", err)
			}
		}
		m.loop.Post(func() { m.foldPayment(sessionID, r) })
	}()
}

func (m *Machine) foldPayment(sessionID string, r payment.Result) {
	if m.session == nil || m.session.ID != sessionID || m.session.Status != StatusPaywallPending || m.pendingTxn != r.TransactionID {
		m.log.Info("stale payment result ignored", "session_id", sessionID, "transaction_id", r.TransactionID, "outcome", r.Outcome)
		return
	}
	m.pendingTxn = ""
	m.presenter.Dismiss()

	switch r.Outcome {
	case payment.OutcomeSuccess:
		m.session.Status = StatusActive
		m.session.Purchases++
		if err := m.timer.Restart(); err != nil {
			m.log.Error("restart monetization timer failed", "session_id", sessionID, "err", err)
		}
		var coins int64
		if r.Entitlement != nil {
			coins = r.Entitlement.Coins
		}
		m.notify(StatusPaywallPending, StatusActive, ReasonPurchased, coins)
	case payment.OutcomeCancelled:
		m.end(ReasonPaymentCancelled, true)
	default:
		m.end(ReasonPaymentFailed, true)
	}
}

// DismissPaywall closes the paywall without buying, which ends the call.
func (m *Machine) DismissPaywall(ctx context.Context) error {
	return m.exec(ctx, func() error {
		if err := m.require("dismiss", StatusPaywallPending); err != nil {
			return err
		}
		if m.checkoutPending || m.pendingTxn != "" {
			return ErrPaymentInFlight
		}
		if _, err := m.presenter.Close(); err != nil {
			return err
		}
		m.end(ReasonPaywallDismissed, true)
		return nil
	})
}

func (m *Machine) ToggleMute(ctx context.Context) (Snapshot, error) {
	return m.toggle(ctx, "toggle_mute", func(s *Session) { s.MicMuted = !s.MicMuted })
}

func (m *Machine) ToggleSpeaker(ctx context.Context) (Snapshot, error) {
	return m.toggle(ctx, "toggle_speaker", func(s *Session) { s.SpeakerOn = !s.SpeakerOn })
}

func (m *Machine) toggle(ctx context.Context, event string, fn func(s *Session)) (Snapshot, error) {
	var snap Snapshot
	err := m.exec(ctx, func() error {
		if err := m.require(event, StatusActive); err != nil {
			return err
		}
		fn(m.session)
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

// ToggleCamera switches the camera. Turning it on without a cached grant
// starts a permission request; the camera comes on later if it is granted
// while the same session is still active. Without capture hardware the
// snapshot reports CaptureUnavailable and the camera stays off.
func (m *Machine) ToggleCamera(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.exec(ctx, func() error {
		if err := m.require("toggle_camera", StatusActive); err != nil {
			return err
		}
		s := m.session
		if s.CameraEnabled {
			s.CameraEnabled = false
			m.gateway.Release(s.ID)
			snap = m.snapshot()
			return nil
		}
		if !m.gateway.DeviceAvailable() {
			// Degraded, not fatal: the call goes on with the placeholder.
			m.nav.PromptSettings("no_capture_device")
			snap = m.snapshot()
			return nil
		}
		if m.gateway.HasPermission() {
			if err := m.enableCamera(); err != nil {
				return err
			}
			snap = m.snapshot()
			return nil
		}
		if !m.permissionPending {
			m.permissionPending = true
			m.requestPermission(s.ID)
		}
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

func (m *Machine) enableCamera() error {
	if err := m.gateway.Acquire(m.session.ID); err != nil {
		return err
	}
	m.session.CameraEnabled = true
	return nil
}

func (m *Machine) requestPermission(sessionID string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		granted, err := m.gateway.RequestPermission(m.ctx)
		m.loop.Post(func() { m.foldPermission(sessionID, granted, err) })
	}()
}

func (m *Machine) foldPermission(sessionID string, granted bool, err error) {
	if m.session == nil || m.session.ID != sessionID {
		return
	}
	m.permissionPending = false
	if m.session.Status != StatusActive {
		return
	}
	switch {
	case errors.Is(err, capability.ErrNoCaptureDevice):
		m.nav.PromptSettings("no_capture_device")
	case err != nil:
		m.log.Warn("camera permission request failed", "session_id", sessionID, "err", err)
	case !granted || !m.gateway.HasPermission():
		m.nav.PromptSettings("camera_permission_denied")
	default:
		if err := m.enableCamera(); err != nil {
			m.log.Warn("camera acquire failed", "session_id", sessionID, "err", err)
		}
	}
}

// Resume re-validates permissions after the app returns from background.
// A camera left on without permission is switched off.
func (m *Machine) Resume(ctx context.Context) (Snapshot, error) {
	if _, err := m.gateway.Revalidate(ctx); err != nil {
		m.log.Warn("permission revalidate failed", "err", err)
	}
	var snap Snapshot
	err := m.exec(ctx, func() error {
		if s := m.session; s != nil && s.CameraEnabled && !m.gateway.HasPermission() {
			s.CameraEnabled = false
			m.gateway.Release(s.ID)
			m.nav.PromptSettings("camera_permission_revoked")
		}
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

func (m *Machine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.exec(ctx, func() error {
		snap = m.snapshot()
		return nil
	})
	return snap, err
}

// Idle reports whether the machine holds nothing worth keeping: no live
// session, no armed ring and no payment or permission request in flight.
func (m *Machine) Idle(ctx context.Context) (bool, error) {
	var idle bool
	err := m.exec(ctx, func() error {
		live := m.session != nil && m.session.Status.Live()
		idle = !live && !m.sched.Armed() && !m.checkoutPending && m.pendingTxn == "" && !m.permissionPending
		return nil
	})
	return idle, err
}

// OutstandingTriggers counts armed timers owned by the machine.
func (m *Machine) OutstandingTriggers() int {
	n := 0
	if m.sched.Armed() {
		n++
	}
	if m.timer.Pending() {
		n++
	}
	return n
}

// Close ends any live session, cancels the scheduler and stops the loop.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		_ = m.exec(context.Background(), func() error {
			if m.session != nil && m.session.Status.Live() {
				m.end(ReasonClosed, false)
			}
			m.sched.Cancel()
			return nil
		})
		m.cancel()
		m.loop.Stop()
		m.wg.Wait()
	})
}

func (m *Machine) require(event string, want Status) error {
	got := StatusIdle
	if m.session != nil {
		got = m.session.Status
	}
	if got != want {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, got)
	}
	return nil
}

func (m *Machine) end(reason string, navigateBack bool) {
	s := m.session
	from := s.Status

	m.timer.Cancel()
	// A refocus during the call may have re-armed the ring; the device
	// focuses again after navigating back.
	m.sched.Cancel()
	m.presenter.Dismiss()
	if m.pendingTxn != "" {
		m.handoff.Abandon(m.pendingTxn, reason)
		m.pendingTxn = ""
	}
	if s.CameraEnabled {
		s.CameraEnabled = false
	}
	m.gateway.Release(s.ID)
	m.permissionPending = false

	s.Status = StatusEnded
	s.EndedAt = m.clock.Now().UTC()
	s.EndReason = reason
	if navigateBack {
		m.nav.GoBack(reason)
	}
	m.notify(from, StatusEnded, reason, 0)
}

func (m *Machine) notify(from, to Status, reason string, coins int64) {
	t := Transition{
		UserID: m.userID,
		From:   from,
		To:     to,
		Reason: reason,
		At:     m.clock.Now().UTC(),
		Coins:  coins,
	}
	if m.session != nil {
		t.SessionID = m.session.ID
	}
	m.log.Info("call transition", "session_id", t.SessionID, "from", from, "to", to, "reason", reason)
	for _, o := range m.observers {
		o.OnTransition(t)
	}
}

func (m *Machine) snapshot() Snapshot {
	snap := Snapshot{
		UserID:             m.userID,
		Status:             StatusIdle,
		Session:            m.session.clone(),
		SchedulerArmed:     m.sched.Armed(),
		PaywallVisible:     m.presenter.Visible(),
		PaywallDueAt:       m.timer.Deadline(),
		PermissionPending:  m.permissionPending,
		TransactionID:      m.pendingTxn,
		CaptureUnavailable: !m.gateway.DeviceAvailable(),
	}
	if m.session != nil {
		snap.Status = m.session.Status
	}
	return snap
}
