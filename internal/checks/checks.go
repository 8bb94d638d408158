package checks

import "github.com/yoanbernabeu/wrtprobe/internal/suite"

// Base lists the base checks in run order: shell liveness first, then
// identity and resources, then the services and lifecycle operations that
// depend on a booted system.
var Base = []*suite.Check{
	{
		Name:  "base.Shell",
		Desc:  "shell transport runs a no-op command",
		Needs: suite.TransportShell,
		Func:  checkShell,
	},
	{
		Name:  "base.Echo",
		Desc:  "echo returns the text it was given",
		Needs: suite.TransportShell,
		Func:  checkEcho,
	},
	{
		Name:  "base.Uname",
		Desc:  "uname identifies the expected kernel family",
		Needs: suite.TransportShell,
		Func:  checkUname,
	},
	{
		Name:  "base.UbusSystemBoard",
		Desc:  "ubus system board reports the expected distribution",
		Needs: suite.TransportShell,
		Func:  checkUbusSystemBoard,
	},
	{
		Name:  "base.FreeMemory",
		Desc:  "used memory is above the configured threshold",
		Needs: suite.TransportShell,
		Func:  checkFreeMemory,
	},
	{
		Name:  "base.DropbearStartup",
		Desc:  "dropbear generates its host key and listens for SSH",
		Needs: suite.TransportShell,
		Func:  checkDropbearStartup,
	},
	{
		Name:  "base.SSH",
		Desc:  "SSH transport runs a no-op command",
		Needs: suite.TransportSSH,
		Func:  checkSSH,
	},
	{
		Name:     "base.SysupgradeBackup",
		Desc:     "sysupgrade -b archives the dropbear config",
		Features: []string{"rootfs"},
		Needs:    suite.TransportSSH,
		Func:     sysupgradeBackup(false),
	},
	{
		Name:     "base.SysupgradeBackupUnchanged",
		Desc:     "sysupgrade -u -b leaves out unchanged config",
		Features: []string{"rootfs"},
		Needs:    suite.TransportSSH,
		Func:     sysupgradeBackup(true),
	},
	{
		Name:  "base.KernelErrors",
		Desc:  "system log has no crash signatures",
		Needs: suite.TransportShell,
		Func:  checkKernelErrors,
	},
}

func init() {
	for _, c := range Base {
		suite.Register(c)
	}
}
