package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII banner for the chat CLI.
func PrintBanner() {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` __     __                            `, "#38bdf8"},
		{` \ \   / /__  _   _  __ _  __ _  ___  `, "#22d3ee"},
		{`  \ \ / / _ \| | | |/ _' |/ _' |/ _ \ `, "#2dd4bf"},
		{`   \ V / (_) | |_| | (_| | (_| | (_) |`, "#34d399"},
		{`    \_/ \___/ \__, |\__,_|\__, |\___/ `, "#4ade80"},
		{`              |___/       |___/       `, "#a3e635"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Println()
}
