package relay

import (
	relaycommand "github.com/goliatone/go-relay/command"
	"github.com/goliatone/go-relay/gateway"
)

var (
	_ gateway.AdminService         = (*Service)(nil)
	_ relaycommand.MutatingService = (*Service)(nil)
	_ relaycommand.SweeperService  = (*Service)(nil)
	_ CommandQueryService          = (*Service)(nil)
)
