package handler

import (
	"finance-app-go/internal/transport/httpserver/handler/billing"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/handler/groups"
	"finance-app-go/internal/transport/httpserver/handler/ledger"
)

type Handlers struct {
	Common       *common.Handlers
	Groups       *groups.Handlers
	Ledger       *ledger.Handlers
	Subscription *billing.Handlers
}

func New(commonHandlers *common.Handlers, groupHandlers *groups.Handlers, ledgerHandlers *ledger.Handlers, subscriptionHandlers *billing.Handlers) *Handlers {
	return &Handlers{
		Common:       commonHandlers,
		Groups:       groupHandlers,
		Ledger:       ledgerHandlers,
		Subscription: subscriptionHandlers,
	}
}
