package catalog

import (
	"os"
	"path/filepath"

	"github.com/jamesainslie/arcboost/pkg/boost/ops"
)

// Registry paths shared by several tweaks.
const (
	gameBarPath         = `Software\Microsoft\GameBar`
	gameDVRPath         = `Software\Microsoft\Windows\CurrentVersion\GameDVR`
	gameConfigStorePath = `System\GameConfigStore`
	systemProfilePath   = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Multimedia\SystemProfile`
	gamesTaskPath       = systemProfilePath + `\Tasks\Games`
	priorityControlPath = `SYSTEM\CurrentControlSet\Control\PriorityControl`
	visualEffectsPath   = `Software\Microsoft\Windows\CurrentVersion\Explorer\VisualEffects`
	backgroundAppsPath  = `Software\Microsoft\Windows\CurrentVersion\BackgroundAccessApplications`
	tcpInterfacesPath   = `SYSTEM\CurrentControlSet\Services\Tcpip\Parameters\Interfaces`
)

// highPerformanceScheme is the GUID of the built-in High Performance
// power plan, identical on every Windows install.
const highPerformanceScheme = "8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c"

// Tweak ids, stable across releases.
const (
	IDPowerPlanHigh         = "power_plan_high"
	IDGameMode              = "game_mode_enable"
	IDDisableGameBar        = "disable_game_bar"
	IDSystemResponsiveness  = "system_responsiveness"
	IDGamesScheduling       = "games_scheduling_profile"
	IDCPUPrioritySeparation = "cpu_priority_separation"
	IDVisualEffects         = "visual_effects_performance"
	IDDisableSysMain        = "disable_sysmain"
	IDDisableBackgroundApps = "disable_background_apps"
	IDNetworkThrottling     = "disable_network_throttling"
	IDDisableNagle          = "disable_nagle"
	IDFullscreenOpts        = "disable_fullscreen_optimizations"
	IDClearShaderCache      = "clear_shader_cache"
)

func hkcu(path, name string) ops.Key { return ops.RegistryKey(ops.HiveCurrentUser, path, name) }
func hklm(path, name string) ops.Key { return ops.RegistryKey(ops.HiveLocalMachine, path, name) }

// shaderCachePaths lists the GPU shader cache directories under the
// local app data root. Returns nothing when the environment variable is
// unset, which makes the purge a no-op.
func shaderCachePaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	if local == "" {
		return nil
	}
	return []string{
		filepath.Join(local, "D3DSCache"),
		filepath.Join(local, "NVIDIA", "DXCache"),
		filepath.Join(local, "NVIDIA", "GLCache"),
		filepath.Join(local, "AMD", "DxcCache"),
	}
}

func defaultTweaks() []Tweak {
	return []Tweak{
		{
			ID:       IDPowerPlanHigh,
			Name:     "Power Plan: High Performance",
			Summary:  "Activate the High Performance power plan",
			Category: CategorySystem,
			Doc: `Switches the active power plan to the built-in **High Performance**
scheme. The default Balanced plan parks CPU cores and lowers clock
speeds to save energy, which costs frame time when a game suddenly
needs the headroom.

Restoring reactivates whichever scheme was active when the tweak was
applied, so a custom plan comes back exactly as it was.`,
			RequiresElevation: true,
			Reversible:        true,
			Action:            PowerSchemeAction{Scheme: highPerformanceScheme},
		},
		{
			ID:       IDGameMode,
			Name:     "Enable Game Mode",
			Summary:  "Turn on Windows Game Mode",
			Category: CategorySystem,
			Doc: `Enables Windows **Game Mode**, which prioritizes the foreground game
for CPU and GPU time and defers Windows Update activity and driver
installs while a game is running.

Game Mode ships enabled on recent Windows builds but is frequently
switched off by other tuning tools. This writes the per-user setting,
so no elevation is needed.`,
			RequiresElevation: false,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hkcu(gameBarPath, "AutoGameModeEnabled"), Value: ops.DWord(1)},
			}},
		},
		{
			ID:       IDDisableGameBar,
			Name:     "Disable Xbox Game Bar & DVR",
			Summary:  "Stop Game Bar capture and background recording",
			Category: CategorySystem,
			Doc: `Disables the Xbox **Game Bar** capture pipeline and the Game DVR
background recording feature. Background recording keeps an encoder
session alive at all times, which costs GPU time and memory bandwidth
even when nothing is ever saved.

Screenshots and manual clips through other tools are unaffected.`,
			RequiresElevation: false,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hkcu(gameDVRPath, "AppCaptureEnabled"), Value: ops.DWord(0)},
				{Key: hkcu(gameConfigStorePath, "GameDVR_Enabled"), Value: ops.DWord(0)},
			}},
		},
		{
			ID:       IDSystemResponsiveness,
			Name:     "System Responsiveness (MMCSS)",
			Summary:  "Give multimedia tasks the full CPU share",
			Category: CategorySystem,
			Doc: `Sets the multimedia class scheduler's **SystemResponsiveness** value
to 0. By default Windows reserves 20% of CPU time for low-priority
background tasks even while a multimedia application is in the
foreground; 0 removes that reservation so games can use the whole
machine.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hklm(systemProfilePath, "SystemResponsiveness"), Value: ops.DWord(0)},
			}},
		},
		{
			ID:       IDGamesScheduling,
			Name:     "Games Task Scheduling Priority",
			Summary:  "Raise the MMCSS scheduling profile for games",
			Category: CategorySystem,
			Doc: `Raises the multimedia class scheduler profile that Windows applies to
processes registered as games: **GPU Priority** to 8, CPU **Priority**
to 6, and the scheduling and storage I/O categories to High. Games get
scheduled ahead of ordinary desktop work without starving drivers or
audio.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hklm(gamesTaskPath, "GPU Priority"), Value: ops.DWord(8)},
				{Key: hklm(gamesTaskPath, "Priority"), Value: ops.DWord(6)},
				{Key: hklm(gamesTaskPath, "Scheduling Category"), Value: ops.String("High")},
				{Key: hklm(gamesTaskPath, "SFIO Priority"), Value: ops.String("High")},
			}},
		},
		{
			ID:       IDCPUPrioritySeparation,
			Name:     "CPU Priority Separation",
			Summary:  "Favor the foreground process with short scheduling quanta",
			Category: CategorySystem,
			Doc: `Sets **Win32PrioritySeparation** to 38 (hex 26): short, variable
scheduling quanta with a 3x boost for the foreground process. The
foreground game gets more frequent, shorter time slices, which lowers
input latency compared to the server-style long quanta some guides
recommend.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hklm(priorityControlPath, "Win32PrioritySeparation"), Value: ops.DWord(38)},
			}},
		},
		{
			ID:       IDVisualEffects,
			Name:     "Visual Effects: Performance Mode",
			Summary:  "Select the adjust-for-best-performance preset",
			Category: CategorySystem,
			Doc: `Sets the visual effects preset to **adjust for best performance**,
turning off window animations, shadows, and transparency. Mostly
relevant on systems with weak integrated graphics; the preset applies
on the next logon for some effects.`,
			RequiresElevation: false,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hkcu(visualEffectsPath, "VisualFXSetting"), Value: ops.DWord(2)},
			}},
		},
		{
			ID:       IDDisableSysMain,
			Name:     "Disable SysMain (Superfetch)",
			Summary:  "Stop and disable the prefetching service",
			Category: CategorySystem,
			Doc: `Stops and disables the **SysMain** service (formerly Superfetch),
which preloads frequently used applications into RAM. On SSD systems
the preloading gains little and its background disk and CPU activity
can stutter games.

Restoring puts the service back into its previous start mode and run
state. Skip this tweak on hard-drive systems, where prefetching still
helps.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: ServiceAction{
				Name:   "SysMain",
				Target: ops.ServiceState{StartMode: ops.StartDisabled, Running: false},
			},
		},
		{
			ID:       IDDisableBackgroundApps,
			Name:     "Disable Background Apps",
			Summary:  "Stop Store apps from running in the background",
			Category: CategorySystem,
			Doc: `Prevents Microsoft Store applications from running in the background
for the current user. Background apps wake up for notifications and
updates at arbitrary times; each wake-up is CPU and disk activity a
game has to compete with.`,
			RequiresElevation: false,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hkcu(backgroundAppsPath, "GlobalUserDisabled"), Value: ops.DWord(1)},
			}},
		},
		{
			ID:       IDNetworkThrottling,
			Name:     "Disable Network Throttling",
			Summary:  "Remove the multimedia network packet cap",
			Category: CategoryNetwork,
			Doc: `Sets **NetworkThrottlingIndex** to 0xFFFFFFFF, which disables the
throttle Windows applies to non-multimedia network traffic while
multimedia applications run. The default cap of 10 packets per
millisecond can add latency in games that also stream, voice chat, or
download in the background.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hklm(systemProfilePath, "NetworkThrottlingIndex"), Value: ops.DWord(0xFFFFFFFF)},
			}},
		},
		{
			ID:       IDDisableNagle,
			Name:     "Disable Nagle's Algorithm",
			Summary:  "Send small TCP packets immediately on every interface",
			Category: CategoryNetwork,
			Doc: `Disables Nagle's algorithm (**TcpAckFrequency** and **TCPNoDelay** set
to 1) on every network interface. Nagle batches small TCP writes into
fewer packets, trading latency for throughput; game traffic is exactly
the small-frequent-packet pattern the batching hurts.

The values are written per interface, so the tweak enumerates the
interface list at apply time. Interfaces normally do not carry these
values at all, and restoring deletes them again.`,
			RequiresElevation: true,
			Reversible:        true,
			Action: FanoutAction{
				Base: hklm(tcpInterfacesPath, ""),
				Sets: []NamedValue{
					{Name: "TcpAckFrequency", Value: ops.DWord(1)},
					{Name: "TCPNoDelay", Value: ops.DWord(1)},
				},
			},
		},
		{
			ID:       IDFullscreenOpts,
			Name:     "Disable Fullscreen Optimizations",
			Summary:  "Use true exclusive fullscreen instead of the DWM overlay",
			Category: CategoryGraphics,
			Doc: `Opts out of **fullscreen optimizations**, the borderless-window layer
Windows substitutes for exclusive fullscreen. The overlay enables fast
alt-tabbing but routes frames through the desktop compositor, which
can add a frame of latency in some titles.

These per-user values usually do not exist beforehand; restoring the
tweak removes them, returning the system default.`,
			RequiresElevation: false,
			Reversible:        true,
			Action: SettingsAction{Changes: []SettingChange{
				{Key: hkcu(gameConfigStorePath, "GameDVR_FSEBehaviorMode"), Value: ops.DWord(2)},
				{Key: hkcu(gameConfigStorePath, "GameDVR_HonorUserFSEBehaviorMode"), Value: ops.DWord(1)},
				{Key: hkcu(gameConfigStorePath, "GameDVR_FSEBehavior"), Value: ops.DWord(2)},
			}},
		},
		{
			ID:       IDClearShaderCache,
			Name:     "Clear GPU Shader Cache",
			Summary:  "Delete cached driver shader compilations",
			Category: CategoryGraphics,
			Doc: `Deletes the DirectX, NVIDIA, and AMD shader cache directories under
the local application data folder. A bloated or stale shader cache can
cause hitching as the driver revalidates entries; drivers rebuild the
cache on demand.

This tweak is **one-way**: deleted cache files cannot be restored and
the tweak is never recorded in the applied state. Expect brief shader
compilation stutter the first time each game runs afterwards.`,
			RequiresElevation: false,
			Reversible:        false,
			Action:            PurgeAction{Paths: shaderCachePaths()},
		},
	}
}
