package emailsvc

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/tsakani/alama/core"
)

// consoleService writes emails to stdout; used in DEV mode.
type consoleService struct {
	conf *core.Config
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) *consoleService {
	return &consoleService{conf: conf}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			fmt.Printf("rendering %q: %v\n", msg.TemplateName, err)
			continue
		}
		if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
			continue
		}
		svc.print(msg)
	}
}

func (svc *consoleService) print(msg *core.EmailMessage) {
	sep := strings.Repeat("-", 70)
	fmt.Println(sep)
	fmt.Printf("From: %s <%s>\n", svc.conf.AppName, svc.conf.DefaultFromEmail)
	fmt.Printf("To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Printf("Cc: %s\n", joinAddresses(msg.Cc))
	}
	fmt.Printf("Subject: [%s] %s\n", svc.conf.AppName, msg.Subject)
	fmt.Println()
	fmt.Println(msg.TextContent)
	for _, at := range msg.Attachments {
		fmt.Printf("[attachment: %s (%s)]\n", at.Filename, at.ContentType)
	}
	fmt.Println(sep)
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
