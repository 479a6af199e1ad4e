package root

import (
	"github.com/troveworks/trove-crm/apps/cli/cmd/bootstrap"
	"github.com/troveworks/trove-crm/apps/cli/cmd/seed"
	tenantcmd "github.com/troveworks/trove-crm/apps/cli/cmd/tenant"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(tenantcmd.Command())
	Root().AddCommand(seed.Command())
}
