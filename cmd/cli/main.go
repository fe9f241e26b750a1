package main

import (
	"github.com/crucial707/asset-lifecycle/cmd/cli/assets"
	"github.com/crucial707/asset-lifecycle/cmd/cli/requests"
	"github.com/crucial707/asset-lifecycle/cmd/cli/returns"
	"github.com/crucial707/asset-lifecycle/cmd/cli/root"
	"github.com/crucial707/asset-lifecycle/cmd/cli/users"
)

func main() {
	users.InitUsers(root.RootCmd)
	assets.InitAssets(root.RootCmd)
	requests.InitRequests(root.RootCmd)
	returns.InitReturns(root.RootCmd)
	root.Execute()
}
