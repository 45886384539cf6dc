package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-pg/pg"
	"github.com/gorilla/mux"
	"github.com/mailgun/mailgun-go/v3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-communication-hub"
	"github.com/interactive-solutions/go-communication-hub/config"
	"github.com/interactive-solutions/go-communication-hub/provider/46elks"
	awsprovider "github.com/interactive-solutions/go-communication-hub/provider/aws"
	mailgunprovider "github.com/interactive-solutions/go-communication-hub/provider/mailgun"
	gopg "github.com/interactive-solutions/go-communication-hub/storage/go-pg"
	rediscache "github.com/interactive-solutions/go-communication-hub/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := config.NewLogger(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("communication hub stopped")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	db := pg.Connect(&pg.Options{
		Addr:     cfg.Database.Addr(),
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		PoolSize: cfg.Database.PoolSize,
	})
	defer db.Close()

	if err := gopg.CreateSchema(db); err != nil {
		return err
	}

	templates, err := buildTemplateStore(cfg, db)
	if err != nil {
		return err
	}

	var preferences communication.PreferenceRepository = gopg.NewPreferenceRepository(db)

	if cfg.Redis.Address != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(context.Background()).Err(); err != nil {
			return errors.Wrap(err, "redis ping failed")
		}

		preferences = rediscache.NewCachedPreferenceRepository(client, preferences,
			rediscache.SetTTL(cfg.Redis.PreferenceTTL),
			rediscache.SetLogger(logger),
		)
	}

	contacts := gopg.NewContactDirectory(db)
	inbox := gopg.NewInboxRepository(db)
	conversations := gopg.NewConversationRepository(db)

	senders, err := buildSenders(cfg, logger, contacts, inbox)
	if err != nil {
		return err
	}

	options := []communication.RouterOption{
		communication.SetLogger(logger),
		communication.SetPreferenceRepo(preferences),
		communication.SetDeliveryRepo(gopg.NewDeliveryRepository(db, cfg.Router.MaxAttempts)),
		communication.SetWorkerCount(cfg.Router.Workers),
		communication.SetQueueSize(cfg.Router.QueueSize),
		communication.SetSendTimeout(cfg.Router.SendTimeout),
	}

	for channel, sender := range senders {
		options = append(options, communication.SetChannelSender(channel, sender))
	}

	router, err := communication.NewRouter(options...)
	if err != nil {
		return errors.Wrap(err, "failed to create router")
	}

	handler := communication.NewHttpHandler(templates,
		communication.SetHttpLogger(logger),
		communication.SetHttpRouter(router),
		communication.SetHttpPreferenceRepo(preferences),
		communication.SetHttpInboxRepo(inbox),
		communication.SetHttpConversationRepo(conversations),
	)

	mr := mux.NewRouter()
	handler.Register(mr)
	mr.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    cfg.Http.Addr,
		Handler: mr,
	}

	errs := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Http.Addr).Info("http server listening")
		errs <- server.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-signals:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("http server shutdown failed")
	}

	router.Shutdown(ctx)

	return nil
}

func buildTemplateStore(cfg *config.Config, db *pg.DB) (*communication.TemplateStore, error) {
	if cfg.Templates.Source == "builtin" {
		return communication.NewTemplateStore(communication.DefaultTemplates()...)
	}

	if cfg.Templates.Seed {
		if err := gopg.SeedTemplates(db, communication.DefaultTemplates()); err != nil {
			return nil, errors.Wrap(err, "failed to seed templates")
		}
	}

	templates, err := gopg.LoadTemplates(db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load templates")
	}

	return communication.NewTemplateStore(templates...)
}

func buildSenders(
	cfg *config.Config,
	logger logrus.FieldLogger,
	contacts communication.ContactDirectory,
	inbox communication.InboxRepository,
) (map[communication.Channel]communication.ChannelSender, error) {
	senders := map[communication.Channel]communication.ChannelSender{
		communication.ChannelEmail: communication.NewLogChannel(communication.ChannelEmail, logger),
		communication.ChannelSms:   communication.NewLogChannel(communication.ChannelSms, logger),
		communication.ChannelPush:  communication.NewLogChannel(communication.ChannelPush, logger),
		communication.ChannelInApp: communication.NewInAppChannel(inbox),
	}

	var sess *session.Session
	if cfg.Email.Provider == "ses" || cfg.Sms.Provider == "sns" || cfg.Push.Provider == "sns" {
		s, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Aws.Region)})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create aws session")
		}
		sess = s
	}

	switch cfg.Email.Provider {
	case "ses":
		senders[communication.ChannelEmail] = communication.NewEmailChannel(contacts, awsprovider.NewSesTransport(sess, cfg.Email.From))

	case "mailgun":
		transport, err := mailgunprovider.NewMailgunTransport(
			mailgun.NewMailgun(cfg.Email.Mailgun.Domain, cfg.Email.Mailgun.ApiKey),
			mailgunprovider.SetFrom(cfg.Email.From),
			mailgunprovider.SetReplyTo(cfg.Email.ReplyTo),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create mailgun transport")
		}
		senders[communication.ChannelEmail] = communication.NewEmailChannel(contacts, transport)
	}

	switch cfg.Sms.Provider {
	case "sns":
		transport := awsprovider.NewSnsTransport(sess, awsprovider.SetSenderId(cfg.Sms.SenderId))
		senders[communication.ChannelSms] = communication.NewSmsChannel(contacts, transport)

	case "46elks":
		transport := elks.New46ElksClient(cfg.Sms.Elks.From, cfg.Sms.Elks.Username, cfg.Sms.Elks.Password)
		senders[communication.ChannelSms] = communication.NewSmsChannel(contacts, transport)
	}

	if cfg.Push.Provider == "sns" {
		senders[communication.ChannelPush] = communication.NewPushChannel(contacts, awsprovider.NewSnsTransport(sess))
	}

	return senders, nil
}
