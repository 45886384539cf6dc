package communication

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-communication-hub/metrics"
)

type Notification struct {
	UserId    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ActionUrl string           `json:"actionUrl,omitempty"`
}

type Router interface {
	// Notify decides the delivery channels for n and queues one delivery per
	// channel. It reports whether anything was queued and never waits for
	// the sends themselves.
	Notify(ctx context.Context, n Notification) bool
	Shutdown(ctx context.Context)
}

type RouterOption func(r *router)

func SetPreferenceRepo(repo PreferenceRepository) RouterOption {
	return func(r *router) {
		r.preferenceRepo = repo
	}
}

func SetDeliveryRepo(repo DeliveryRepository) RouterOption {
	return func(r *router) {
		r.deliveryRepo = repo
	}
}

func SetChannelSender(channel Channel, sender ChannelSender) RouterOption {
	return func(r *router) {
		r.senders[channel] = sender
	}
}

func SetLogger(logger logrus.FieldLogger) RouterOption {
	return func(r *router) {
		r.logger = logger
	}
}

func SetWorkerCount(count int) RouterOption {
	return func(r *router) {
		r.workerCount = count
	}
}

func SetQueueSize(size int) RouterOption {
	return func(r *router) {
		r.queueSize = size
	}
}

func SetSendTimeout(timeout time.Duration) RouterOption {
	return func(r *router) {
		r.sendTimeout = timeout
	}
}

// SetClock replaces time.Now for quiet hours evaluation.
func SetClock(now func() time.Time) RouterOption {
	return func(r *router) {
		r.now = now
	}
}

type router struct {
	logger logrus.FieldLogger

	workerCtx    context.Context
	workerCancel context.CancelFunc
	workers      sync.WaitGroup

	workerQueue chan *Delivery
	workerCount int
	queueSize   int
	sendTimeout time.Duration

	now func() time.Time

	preferenceRepo PreferenceRepository
	deliveryRepo   DeliveryRepository

	senders map[Channel]ChannelSender
}

func NewRouter(options ...RouterOption) (Router, error) {
	r := &router{
		logger: logrus.New(),

		workerCount: 5,
		queueSize:   1000,
		sendTimeout: 30 * time.Second,

		now:     time.Now,
		senders: make(map[Channel]ChannelSender),
	}

	for _, option := range options {
		option(r)
	}

	if err := r.ensureUsableConfiguration(); err != nil {
		return nil, err
	}

	r.workerQueue = make(chan *Delivery, r.queueSize)
	r.workerCtx, r.workerCancel = context.WithCancel(context.Background())

	for i := 0; i < r.workerCount; i++ {
		r.workers.Add(1)
		go r.worker(r.workerCtx)
	}

	if r.deliveryRepo != nil {
		pending, err := r.deliveryRepo.GetPending(r.workerCtx)
		if err != nil {
			r.workerCancel()
			return nil, errors.Wrap(err, "Failed to load pending deliveries")
		}

		for i := range pending {
			r.queue(&pending[i])
		}
	}

	return r, nil
}

func (r *router) ensureUsableConfiguration() error {
	if r.preferenceRepo == nil {
		return errors.New("Missing preference repository")
	}

	if r.workerCount < 1 {
		return errors.New("Worker count must be positive")
	}

	for channel, sender := range r.senders {
		if sender == nil {
			return errors.Errorf("Nil sender for channel %s", channel)
		}
	}

	return nil
}

func (r *router) Notify(ctx context.Context, n Notification) bool {
	logger := r.logger.
		WithField("userId", n.UserId).
		WithField("type", n.Type).
		WithField("priority", n.Priority)

	if r.workerCtx.Err() != nil {
		logger.Warn("notification received after shutdown")
		return false
	}

	if !n.Type.Valid() || !n.Priority.Valid() {
		logger.Warn("rejected notification with unknown type or priority")
		metrics.NotificationsRouted.WithLabelValues("unknown", "unknown", metrics.OutcomeRejected).Inc()
		return false
	}

	prefs := r.preferences(ctx, n.UserId)

	channels, suppressed := selectChannels(prefs, n, r.now())
	if suppressed {
		logger.Debug("notification suppressed by quiet hours")
		metrics.NotificationsRouted.WithLabelValues(string(n.Type), string(n.Priority), metrics.OutcomeQuietHours).Inc()
		return false
	}

	queued := 0

	for _, channel := range channels {
		if _, ok := r.senders[channel]; !ok {
			logger.WithField("channel", channel).Warn("no sender registered for channel")
			continue
		}

		delivery := &Delivery{
			Uuid:      uuid.New(),
			Channel:   channel,
			UserId:    n.UserId,
			Type:      n.Type,
			Priority:  n.Priority,
			Title:     n.Title,
			Message:   n.Message,
			ActionUrl: n.ActionUrl,
			CreatedAt: time.Now(),
		}

		if r.deliveryRepo != nil {
			if err := r.deliveryRepo.Create(ctx, delivery); err != nil {
				logger.
					WithField("delivery", delivery.Uuid).
					WithError(err).
					Error("failed to record delivery")
			}
		}

		r.queue(delivery)
		metrics.DeliveriesQueued.WithLabelValues(string(channel)).Inc()
		queued++
	}

	outcome := metrics.OutcomeDispatched
	if queued == 0 {
		outcome = metrics.OutcomeNoChannel
	}
	metrics.NotificationsRouted.WithLabelValues(string(n.Type), string(n.Priority), outcome).Inc()

	return queued > 0
}

func (r *router) Shutdown(ctx context.Context) {
	r.workerCancel()

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (r *router) preferences(ctx context.Context, userId string) NotificationPreferences {
	prefs, err := r.preferenceRepo.Get(ctx, userId)
	if err == nil {
		return prefs
	}

	if errors.Cause(err) != PreferencesNotFoundErr {
		r.logger.
			WithField("userId", userId).
			WithError(err).
			Error("failed to load notification preferences, treating all channels as disabled")
	}

	return DisabledPreferences(userId)
}

// SelectChannels returns the channels a notification goes to, in dispatch order.
func SelectChannels(prefs NotificationPreferences, n Notification, now time.Time) []Channel {
	channels, _ := selectChannels(prefs, n, now)
	return channels
}

func selectChannels(prefs NotificationPreferences, n Notification, now time.Time) ([]Channel, bool) {
	urgent := n.Priority == PriorityUrgent

	selected := make(map[Channel]bool, len(Channels))
	for _, channel := range Channels {
		if prefs.Channel(channel).Accepts(n.Type) {
			selected[channel] = true
		}
	}

	// In-app is deliberately not forced for urgent notifications.
	if urgent {
		selected[ChannelEmail] = true
		selected[ChannelSms] = true
		selected[ChannelPush] = true
	}

	if !urgent && prefs.QuietHours.Contains(now) {
		return nil, len(selected) > 0
	}

	var out []Channel
	for _, channel := range Channels {
		if selected[channel] {
			out = append(out, channel)
		}
	}

	return out, false
}

func (r *router) queue(delivery *Delivery) {
	go func() {
		select {
		case r.workerQueue <- delivery:
		case <-r.workerCtx.Done():
		}
	}()
}

func (r *router) worker(ctx context.Context) {
	defer r.workers.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case delivery, ok := <-r.workerQueue:
			if !ok {
				return
			}

			r.process(ctx, delivery)
		}
	}
}

func (r *router) process(ctx context.Context, delivery *Delivery) {
	logger := r.logger.
		WithField("delivery", delivery.Uuid).
		WithField("channel", delivery.Channel).
		WithField("userId", delivery.UserId)

	sender, ok := r.senders[delivery.Channel]
	if !ok {
		logger.Error("no sender registered for queued delivery")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(sendCtx, delivery)
	metrics.DeliveryDuration.WithLabelValues(string(delivery.Channel)).Observe(time.Since(start).Seconds())

	delivery.Attempts++

	if err != nil {
		metrics.DeliveriesCompleted.WithLabelValues(string(delivery.Channel), "failed").Inc()
		logger.WithError(err).Error("failed to deliver notification")

		delivery.LastError = err.Error()
	} else {
		metrics.DeliveriesCompleted.WithLabelValues(string(delivery.Channel), "sent").Inc()

		now := time.Now()
		delivery.SentAt = &now
		delivery.LastError = ""
	}

	if r.deliveryRepo == nil {
		return
	}

	if err := r.deliveryRepo.Update(ctx, delivery); err != nil {
		logger.WithError(err).Error("failed to update delivery in delivery repo")
	}
}
