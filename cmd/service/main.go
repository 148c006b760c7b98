package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/itbees/fas-billing/api"
	"github.com/itbees/fas-billing/billing"
	"github.com/itbees/fas-billing/db"
	"github.com/itbees/fas-billing/notifications"
	"github.com/itbees/fas-billing/notifications/smtp"
	"github.com/itbees/fas-billing/stripe"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.vocdoni.io/dvote/log"
)

func main() {
	log.Init("debug", "stdout", nil)
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.StringP("secret", "s", "", "API secret")
	flag.String("mongoURL", "", "The URL of the MongoDB server")
	flag.String("mongoDB", "fasBilling", "The name of the MongoDB database")
	flag.String("emailFromAddress", "", "The email address to send notifications from")
	flag.String("emailFromName", "FAS Billing", "The name to send notifications from")
	flag.String("smtpServer", "", "The SMTP server to use for email notifications")
	flag.Int("smtpPort", 587, "The SMTP port to use for email notifications")
	flag.String("smtpUsername", "", "The SMTP username")
	flag.String("smtpPassword", "", "The SMTP password")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("FAS")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	if secret == "" {
		log.Fatal("secret is required")
	}
	mongoURL := viper.GetString("mongoURL")
	mongoDB := viper.GetString("mongoDB")
	// email vars
	emailFromAddress := viper.GetString("emailFromAddress")
	emailFromName := viper.GetString("emailFromName")
	smtpServer := viper.GetString("smtpServer")
	smtpPort := viper.GetInt("smtpPort")
	smtpUsername := viper.GetString("smtpUsername")
	smtpPassword := viper.GetString("smtpPassword")
	// initialize the MongoDB database
	database, err := db.New(mongoURL, mongoDB)
	if err != nil {
		log.Fatalf("could not create the MongoDB database: %v", err)
	}
	defer database.Close()
	// create the email notifications service if the SMTP server is configured
	var mailService notifications.NotificationService
	if smtpServer != "" && emailFromAddress != "" {
		mailService = new(smtp.Email)
		if err := mailService.Init(&smtp.Config{
			FromName:     emailFromName,
			FromAddress:  emailFromAddress,
			SMTPServer:   smtpServer,
			SMTPPort:     smtpPort,
			SMTPUsername: smtpUsername,
			SMTPPassword: smtpPassword,
		}); err != nil {
			log.Fatalf("could not create the email service: %v", err)
		}
		log.Infow("email service created", "from", emailFromAddress)
	}
	// create the Stripe service from its environment configuration
	stripeConfig, err := stripe.NewConfig()
	if err != nil {
		log.Fatalf("could not create the Stripe configuration: %v", err)
	}
	stripeClient := stripe.NewClient(stripeConfig)
	billingService := billing.New(database, mailService)
	sessionService := stripe.NewSessionService(stripeClient, database, stripeConfig)
	stripeService, err := stripe.NewService(stripeConfig, database, billingService, stripeClient, sessionService)
	if err != nil {
		log.Fatalf("could not create the Stripe service: %v", err)
	}
	// create the local API server
	api.New(&api.Config{
		Host:        host,
		Port:        port,
		Secret:      secret,
		DB:          database,
		MailService: mailService,
		Stripe:      stripeService,
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
