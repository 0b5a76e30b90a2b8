package emailsvc

import (
	"sync"

	"github.com/tsakani/alama/core"
)

// DummyService renders and records messages without delivering them;
// used by test suites.
type DummyService struct {
	mutex      sync.Mutex
	messages   []*core.EmailMessage
	renderErrs []error
}

var _ core.EmailService = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (svc *DummyService) SendMessages(messages ...*core.EmailMessage) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			svc.renderErrs = append(svc.renderErrs, err)
		}
		svc.messages = append(svc.messages, msg)
	}
}

// RenderErrors reports template failures so test suites can fail loudly
// instead of asserting against silently empty bodies.
func (svc *DummyService) RenderErrors() []error {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	return append([]error{}, svc.renderErrs...)
}

func (svc *DummyService) Messages() []*core.EmailMessage {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	return append([]*core.EmailMessage{}, svc.messages...)
}
