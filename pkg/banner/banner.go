package banner

import (
	"fmt"

	"feedbackrelay/pkg/config"
)

const banner = `
██████╗ ███████╗██╗      █████╗ ██╗   ██╗
██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝
██████╔╝█████╗  ██║     ███████║ ╚████╔╝
██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝
██║  ██║███████╗███████╗██║  ██║   ██║
╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝
`

// PrintWithEff prints the startup banner using the effective config.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	filePath := eff.FilePath
	if filePath == "" && eff.Config != nil {
		filePath = eff.Config.Store.File
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Store:    %s\n", filePath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET /ws            - Live connection (join, sendMessage, getMessages, deleteMessage)")
	fmt.Println("GET /api/messages  - Backing file contents (JSON)")
	fmt.Println("GET /admin/stats   - Thread/message/client counts")
	fmt.Println("GET /metrics       - Prometheus metrics")

	fmt.Println("\n== Production? ================================================")
	origin := ""
	if eff.Config != nil {
		origin = eff.Config.Security.CORS.AllowedOrigin
	}
	if origin != "" && origin != "*" {
		fmt.Printf("- CORS origin: %s\n", origin)
	} else {
		fmt.Println("- CORS origin: OPEN (set security.cors.allowed_origin)")
	}
	ret := false
	if eff.Config != nil {
		ret = eff.Config.Retention.Enabled
	}
	if ret {
		fmt.Printf("- Retention: enabled (cron=%s period=%s)\n", eff.Config.Retention.Cron, eff.Config.Retention.Period.Duration())
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}
