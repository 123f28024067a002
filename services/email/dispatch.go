package emailsvc

import (
	"fmt"
	"sync"

	"github.com/trezcool/campusconnect/core"
)

// dispatcher renders and delivers messages in the background, one goroutine per message.
type dispatcher struct {
	logger core.Logger
	wg     *sync.WaitGroup
}

func newDispatcher(logger core.Logger) dispatcher {
	return dispatcher{logger: logger, wg: new(sync.WaitGroup)}
}

func (d dispatcher) dispatch(deliver func(core.EmailMessage) error, messages ...*core.EmailMessage) {
	for _, msg := range messages {
		d.wg.Add(1)
		go func(msg *core.EmailMessage) {
			defer d.wg.Done()
			d.deliver(deliver, msg)
		}(msg)
	}
}

// deliver renders msg and hands it to fn unless it has no recipient or nothing to say.
// It reports whether msg was delivered.
func (d dispatcher) deliver(fn func(core.EmailMessage) error, msg *core.EmailMessage) bool {
	if err := msg.Render(); err != nil {
		d.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return false
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return false
	}
	if err := fn(*msg); err != nil {
		d.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
		return false
	}
	return true
}

// Wait blocks until every dispatched message is delivered.
func (d dispatcher) Wait() {
	if d.wg != nil {
		d.wg.Wait()
	}
}
