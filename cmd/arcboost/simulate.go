package main

import (
	"github.com/jamesainslie/arcboost/pkg/boost/ops"
)

// balancedScheme is the GUID of the stock Balanced power plan, the active
// scheme on a fresh Windows install.
const balancedScheme = "381b4222-f694-41f0-9685-ff5bb260df2e"

// simulatedSystem builds an in-memory executor seeded to look like a
// stock install: Balanced power plan, SysMain running, a couple of
// network interfaces, Game Mode on, and no boost tweaks applied yet.
func simulatedSystem() *ops.Memory {
	m := ops.NewMemory()

	m.Seed(ops.PowerSchemeKey(), ops.String(balancedScheme))

	m.SeedService("SysMain", ops.ServiceState{
		StartMode: ops.StartAutomatic,
		Running:   true,
	})

	// Interface GUIDs for the per-interface TCP tweaks to fan out over.
	tcpInterfaces := ops.RegistryKey(ops.HiveLocalMachine,
		`SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`, "")
	m.SeedSubkeys(tcpInterfaces,
		"{2fa8e4a1-b4a4-4e3c-8f52-7c1e3d6a9b01}",
		"{c7d0a2f3-95ff-4f21-a3d8-4b6f2e9c5d42}",
	)

	// Game Mode ships enabled on recent builds.
	m.Seed(ops.RegistryKey(ops.HiveCurrentUser,
		`Software\Microsoft\GameBar`, "AutoGameModeEnabled"), ops.DWord(1))

	return m
}
