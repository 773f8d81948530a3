package chat

import (
	"context"

	"github.com/qmuntal/stateless"

	"github.com/komekarch/site/backend/internal/model/chat"
)

type trigger string

const (
	triggerOpen   trigger = "open"
	triggerClose  trigger = "close"
	triggerClear  trigger = "clear"
	triggerSubmit trigger = "submit"
	triggerReply  trigger = "reply"
)

// newWidgetMachine builds Closed / Open{Idle, AwaitingReply}. pending
// reports outstanding replies and is read under the session lock.
func newWidgetMachine(pending func() int) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(chat.StateClosed)

	noop := func(context.Context, ...any) error { return nil }
	awaiting := func(context.Context, ...any) bool { return pending() > 0 }
	settled := func(context.Context, ...any) bool { return pending() == 0 }

	fsm.Configure(chat.StateClosed).
		PermitDynamic(triggerOpen, func(context.Context, ...any) (stateless.State, error) {
			// a reply armed before closing is still outstanding
			if pending() > 0 {
				return chat.StateAwaitingReply, nil
			}
			return chat.StateIdle, nil
		}).
		Ignore(triggerClose).
		Ignore(triggerReply)

	fsm.Configure(chat.StateOpen).
		Permit(triggerClose, chat.StateClosed).
		Ignore(triggerOpen).
		InternalTransition(triggerClear, noop)

	fsm.Configure(chat.StateIdle).
		SubstateOf(chat.StateOpen).
		Permit(triggerSubmit, chat.StateAwaitingReply).
		Ignore(triggerReply)

	fsm.Configure(chat.StateAwaitingReply).
		SubstateOf(chat.StateOpen).
		InternalTransition(triggerSubmit, noop).
		Permit(triggerReply, chat.StateIdle, settled).
		Ignore(triggerReply, awaiting)

	return fsm
}
