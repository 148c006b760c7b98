package smtp

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/itbees/fas-billing/notifications"
	"github.com/itbees/fas-billing/notifications/testmail"
	"github.com/itbees/fas-billing/test"
)

const (
	testFromAddress = "billing@example.com"
	testFromName    = "Billing"
	testToAddress   = "owner@example.com"
)

var (
	testMailService *Email
	testMailFinder  *testmail.TestMail
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// start the mail service container
	mailContainer, err := test.StartMailService(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start mail container: %v", err))
	}
	// get the host and the mapped SMTP and API ports
	mailHost, err := mailContainer.Host(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to get mail container host: %v", err))
	}
	smtpPort, err := mailContainer.MappedPort(ctx, test.MailSMTPPort)
	if err != nil {
		panic(fmt.Sprintf("failed to get mail container SMTP port: %v", err))
	}
	apiPort, err := mailContainer.MappedPort(ctx, test.MailAPIPort)
	if err != nil {
		panic(fmt.Sprintf("failed to get mail container API port: %v", err))
	}
	// init the SMTP service under test and the API finder
	testMailService = new(Email)
	if err := testMailService.Init(&Config{
		FromName:    testFromName,
		FromAddress: testFromAddress,
		SMTPServer:  mailHost,
		SMTPPort:    smtpPort.Int(),
		TestAPIPort: apiPort.Int(),
	}); err != nil {
		panic(fmt.Sprintf("failed to init the SMTP service: %v", err))
	}
	testMailFinder = new(testmail.TestMail)
	if err := testMailFinder.Init(&testmail.TestMailConfig{
		FromAddress: testFromAddress,
		Host:        mailHost,
		SMTPPort:    smtpPort.Int(),
		APIPort:     apiPort.Int(),
	}); err != nil {
		panic(fmt.Sprintf("failed to init the test mail finder: %v", err))
	}

	code := m.Run()

	if err := mailContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop mail container: %v", err))
	}
	os.Exit(code)
}

func TestSendNotification(t *testing.T) {
	c := qt.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.Assert(testMailService.SendNotification(ctx, &notifications.Notification{
		ToName:    "Owner",
		ToAddress: testToAddress,
		Subject:   "Your subscription has been renewed",
		PlainBody: "The Starter subscription of ACME has been renewed.",
		Body:      "<p>The <b>Starter</b> subscription of ACME has been renewed.</p>",
	}), qt.IsNil)

	// the mail service API shows the delivered message
	body, err := testMailFinder.FindEmail(ctx, testToAddress)
	c.Assert(err, qt.IsNil)
	c.Assert(body, qt.Contains, "Starter")
}

func TestInitInvalidConfig(t *testing.T) {
	c := qt.New(t)
	mailService := new(Email)
	// a non SMTP configuration is rejected
	c.Assert(mailService.Init("bogus"), qt.IsNotNil)
	// a malformed from address is rejected
	c.Assert(mailService.Init(&Config{FromAddress: "not-an-address"}), qt.IsNotNil)
}
