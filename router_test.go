package communication

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/interactive-solutions/go-communication-hub/metrics"
)

func TestRouter(t *testing.T) {
	suite.Run(t, new(routerTestSuite))
}

type routerTestSuite struct {
	suite.Suite

	now     time.Time
	prefs   *preferenceRepository
	deliver *deliveryRepository
	senders map[Channel]*recordingSender

	router Router
}

func allChannels(types ...NotificationType) NotificationPreferences {
	set := NewTypeSet(types...)

	return NotificationPreferences{
		Email: ChannelPreference{Enabled: true, Types: set},
		Sms:   ChannelPreference{Enabled: true, Types: set},
		Push:  ChannelPreference{Enabled: true, Types: set},
		InApp: ChannelPreference{Enabled: true, Types: set},
	}
}

func nightly() QuietHours {
	return QuietHours{Enabled: true, Start: "22:00", End: "08:00", Timezone: "America/New_York"}
}

func (suite *routerTestSuite) SetupTest() {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(suite.T(), err)

	suite.now = time.Date(2025, time.March, 10, 14, 0, 0, 0, ny)
	suite.prefs = &preferenceRepository{prefs: map[string]NotificationPreferences{}}
	suite.deliver = &deliveryRepository{}
	suite.senders = map[Channel]*recordingSender{}

	options := []RouterOption{
		SetPreferenceRepo(suite.prefs),
		SetDeliveryRepo(suite.deliver),
		SetClock(func() time.Time { return suite.now }),
		SetWorkerCount(2),
	}

	for _, channel := range Channels {
		sender := newRecordingSender()
		suite.senders[channel] = sender
		options = append(options, SetChannelSender(channel, sender))
	}

	suite.router, err = NewRouter(options...)
	require.NoError(suite.T(), err)
}

func (suite *routerTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	suite.router.Shutdown(ctx)
}

func (suite *routerTestSuite) assertDelivered(n Notification, channels ...Channel) {
	expected := map[Channel]bool{}
	for _, channel := range channels {
		expected[channel] = true
	}

	for _, channel := range Channels {
		sender := suite.senders[channel]

		if !expected[channel] {
			sender.assertIdle(suite.T())
			continue
		}

		d := sender.receive(suite.T())
		assert.Equal(suite.T(), channel, d.Channel)
		assert.Equal(suite.T(), n.UserId, d.UserId)
		assert.Equal(suite.T(), n.Title, d.Title)
		assert.Equal(suite.T(), n.Message, d.Message)
	}
}

func (suite *routerTestSuite) TestDeliversToSubscribedChannels() {
	prefs := allChannels(TypeReturnCompleted)
	prefs.Sms.Enabled = false
	suite.prefs.prefs["client-1"] = prefs

	n := Notification{UserId: "client-1", Type: TypeReturnCompleted, Priority: PriorityNormal, Title: "Filed", Message: "Your return was filed"}

	assert.True(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n, ChannelEmail, ChannelPush, ChannelInApp)
}

func (suite *routerTestSuite) TestUnsubscribedTypeIsNotDelivered() {
	suite.prefs.prefs["client-1"] = allChannels(TypeReturnCompleted)

	n := Notification{UserId: "client-1", Type: TypeStatusUpdate, Priority: PriorityHigh}

	assert.False(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n)
}

func (suite *routerTestSuite) TestUrgentWithoutPreferences() {
	n := Notification{UserId: "unknown", Type: TypeUrgentMatter, Priority: PriorityUrgent, Title: "Call us", Message: "IRS notice received"}

	assert.True(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n, ChannelEmail, ChannelSms, ChannelPush)
}

func (suite *routerTestSuite) TestUrgentDuringQuietHours() {
	prefs := allChannels(TypeDeadlineReminder)
	prefs.Email.Enabled = false
	prefs.QuietHours = nightly()
	suite.prefs.prefs["client-1"] = prefs

	ny, _ := time.LoadLocation("America/New_York")
	suite.now = time.Date(2025, time.March, 10, 23, 0, 0, 0, ny)

	n := Notification{UserId: "client-1", Type: TypeDeadlineReminder, Priority: PriorityUrgent, Title: "Deadline"}

	assert.True(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n, ChannelEmail, ChannelSms, ChannelPush, ChannelInApp)
}

func (suite *routerTestSuite) TestQuietHoursSuppressNonUrgent() {
	prefs := allChannels(TypeNewMessage)
	prefs.QuietHours = nightly()
	suite.prefs.prefs["client-1"] = prefs

	suppressed := metrics.NotificationsRouted.WithLabelValues(string(TypeNewMessage), string(PriorityLow), metrics.OutcomeQuietHours)
	before := testutil.ToFloat64(suppressed)

	for _, at := range []time.Time{
		time.Date(2025, time.March, 11, 3, 0, 0, 0, time.UTC), // 23:00 the previous evening in New York
		time.Date(2025, time.March, 11, 11, 30, 0, 0, time.UTC),
	} {
		suite.now = at

		for _, priority := range []Priority{PriorityLow, PriorityNormal, PriorityHigh} {
			n := Notification{UserId: "client-1", Type: TypeNewMessage, Priority: priority}
			assert.False(suite.T(), suite.router.Notify(context.Background(), n), priority)
		}
	}

	assert.Equal(suite.T(), before+2, testutil.ToFloat64(suppressed))
	suite.assertDelivered(Notification{})
}

func (suite *routerTestSuite) TestOutsideQuietHours() {
	prefs := allChannels(TypeNewMessage)
	prefs.QuietHours = nightly()
	suite.prefs.prefs["client-1"] = prefs

	ny, _ := time.LoadLocation("America/New_York")
	suite.now = time.Date(2025, time.March, 10, 8, 0, 0, 0, ny)

	n := Notification{UserId: "client-1", Type: TypeNewMessage, Priority: PriorityLow}

	assert.True(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n, Channels...)
}

func (suite *routerTestSuite) TestAllChannelsDisabled() {
	prefs := allChannels(TypeSystemMaintenance)
	for _, c := range []*ChannelPreference{&prefs.Email, &prefs.Sms, &prefs.Push, &prefs.InApp} {
		c.Enabled = false
	}
	suite.prefs.prefs["client-1"] = prefs

	n := Notification{UserId: "client-1", Type: TypeSystemMaintenance, Priority: PriorityLow, Title: "Maintenance"}

	assert.False(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n)
}

func (suite *routerTestSuite) TestNotifyAfterShutdown() {
	suite.prefs.prefs["client-1"] = allChannels(TypeNewMessage)
	suite.router.Shutdown(context.Background())

	n := Notification{UserId: "client-1", Type: TypeNewMessage, Priority: PriorityUrgent}

	assert.False(suite.T(), suite.router.Notify(context.Background(), n))
	assert.Empty(suite.T(), suite.deliver.created)
	suite.assertDelivered(n)
}

func (suite *routerTestSuite) TestRejectsUnknownTypeAndPriority() {
	suite.prefs.prefs["client-1"] = allChannels(TypeNewMessage)

	assert.False(suite.T(), suite.router.Notify(context.Background(), Notification{UserId: "client-1", Type: "bogus", Priority: PriorityUrgent}))
	assert.False(suite.T(), suite.router.Notify(context.Background(), Notification{UserId: "client-1", Type: TypeNewMessage, Priority: "extreme"}))
	suite.assertDelivered(Notification{})
}

func (suite *routerTestSuite) TestPreferenceLookupFailureDisablesChannels() {
	suite.prefs.err = errors.New("connection refused")

	n := Notification{UserId: "client-1", Type: TypeNewMessage, Priority: PriorityHigh}

	assert.False(suite.T(), suite.router.Notify(context.Background(), n))
	suite.assertDelivered(n)
}

func (suite *routerTestSuite) TestDeliveriesAreRecorded() {
	suite.prefs.prefs["client-1"] = NotificationPreferences{
		Email: ChannelPreference{Enabled: true, Types: NewTypeSet(TypePaymentDue)},
	}

	n := Notification{UserId: "client-1", Type: TypePaymentDue, Priority: PriorityNormal, Title: "Invoice"}
	require.True(suite.T(), suite.router.Notify(context.Background(), n))

	suite.senders[ChannelEmail].receive(suite.T())

	require.Eventually(suite.T(), func() bool {
		return len(suite.deliver.Updated()) == 1
	}, time.Second, 10*time.Millisecond)

	updated := suite.deliver.Updated()[0]
	assert.Equal(suite.T(), 1, updated.Attempts)
	assert.NotNil(suite.T(), updated.SentAt)
	assert.Empty(suite.T(), updated.LastError)
}

func (suite *routerTestSuite) TestFailedDeliveryKeepsError() {
	suite.prefs.prefs["client-1"] = NotificationPreferences{
		Sms: ChannelPreference{Enabled: true, Types: NewTypeSet(TypePaymentDue)},
	}
	suite.senders[ChannelSms].err = errors.New("carrier rejected")

	n := Notification{UserId: "client-1", Type: TypePaymentDue, Priority: PriorityNormal}
	require.True(suite.T(), suite.router.Notify(context.Background(), n))

	suite.senders[ChannelSms].receive(suite.T())

	require.Eventually(suite.T(), func() bool {
		return len(suite.deliver.Updated()) == 1
	}, time.Second, 10*time.Millisecond)

	updated := suite.deliver.Updated()[0]
	assert.Nil(suite.T(), updated.SentAt)
	assert.Equal(suite.T(), "carrier rejected", updated.LastError)
}

func TestSelectChannels(t *testing.T) {
	now := time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

	prefs := allChannels(TypeDocumentSigned)
	prefs.Push.Enabled = false

	assert.Equal(t, []Channel{ChannelEmail, ChannelSms, ChannelInApp}, SelectChannels(prefs, Notification{Type: TypeDocumentSigned, Priority: PriorityLow}, now))
	assert.Empty(t, SelectChannels(DisabledPreferences("u"), Notification{Type: TypeDocumentSigned, Priority: PriorityHigh}, now))
	assert.Equal(t, []Channel{ChannelEmail, ChannelSms, ChannelPush}, SelectChannels(DisabledPreferences("u"), Notification{Type: TypeDocumentSigned, Priority: PriorityUrgent}, now))

	prefs.QuietHours = QuietHours{Enabled: true, Start: "11:00", End: "13:00"}
	assert.Empty(t, SelectChannels(prefs, Notification{Type: TypeDocumentSigned, Priority: PriorityHigh}, now))
}

func TestNewRouterRequiresPreferenceRepo(t *testing.T) {
	_, err := NewRouter()
	assert.Error(t, err)

	_, err = NewRouter(SetPreferenceRepo(&preferenceRepository{}), SetWorkerCount(0))
	assert.Error(t, err)

	_, err = NewRouter(SetPreferenceRepo(&preferenceRepository{}), SetChannelSender(ChannelEmail, nil))
	assert.Error(t, err)
}

func TestRouterRequeuesPendingDeliveries(t *testing.T) {
	pending := Delivery{Uuid: uuid.New(), Channel: ChannelEmail, UserId: "client-1", Type: TypeStatusUpdate, Priority: PriorityNormal, Attempts: 2}

	sender := newRecordingSender()
	logger, _ := test.NewNullLogger()

	r, err := NewRouter(
		SetPreferenceRepo(&preferenceRepository{}),
		SetDeliveryRepo(&deliveryRepository{pending: []Delivery{pending}}),
		SetChannelSender(ChannelEmail, sender),
		SetLogger(logger),
	)
	require.NoError(t, err)
	defer r.Shutdown(context.Background())

	d := sender.receive(t)
	assert.Equal(t, pending.Uuid, d.Uuid)
}

func TestRouterSkipsChannelWithoutSender(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sender := newRecordingSender()

	r, err := NewRouter(
		SetPreferenceRepo(&preferenceRepository{prefs: map[string]NotificationPreferences{"client-1": allChannels(TypeNewMessage)}}),
		SetChannelSender(ChannelInApp, sender),
		SetLogger(logger),
	)
	require.NoError(t, err)
	defer r.Shutdown(context.Background())

	assert.True(t, r.Notify(context.Background(), Notification{UserId: "client-1", Type: TypeNewMessage, Priority: PriorityNormal}))
	assert.Equal(t, ChannelInApp, sender.receive(t).Channel)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
}
