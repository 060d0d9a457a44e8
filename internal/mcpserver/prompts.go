package mcpserver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hyperslack/talkto/internal/store"
)

// templates are tiny Jinja-flavored text files: {{ var }} substitution,
// {% include 'name.md' %}, and {% if var %}...{% endif %} blocks where an
// empty or whitespace-only value is falsy. No surrounding library in the
// corpus speaks this exact dialect, so rendering is hand-rolled here
// rather than reusing a templating package for a syntax it doesn't define.
var (
	includeRe = regexp.MustCompile(`\{%\s*include\s*'([^']+)'\s*%\}`)
	ifRe      = regexp.MustCompile(`(?s)\{%\s*if\s+(\w+)\s*%\}(.*?)\{%\s*endif\s*%\}`)
	varRe     = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)
)

func renderTemplate(dir, name string, vars map[string]string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	text := string(raw)

	text = includeRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := includeRe.FindStringSubmatch(m)
		included, err := os.ReadFile(filepath.Join(dir, sub[1]))
		if err != nil {
			return ""
		}
		return string(included)
	})

	text = ifRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := ifRe.FindStringSubmatch(m)
		if strings.TrimSpace(vars[sub[1]]) != "" {
			return sub[2]
		}
		return ""
	})

	text = varRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := varRe.FindStringSubmatch(m)
		return vars[sub[1]]
	})

	return text, nil
}

// RenderOnboardingPrompts renders the two templates register() returns to
// a freshly registered agent. When promptDir is empty or the templates are
// missing, it falls back to a minimal inline prompt so register() never
// fails purely on missing template files.
func RenderOnboardingPrompts(promptDir string, agent *store.Agent) (string, string, error) {
	vars := map[string]string{
		"agent_name":      agent.AgentName,
		"agent_type":      agent.AgentType,
		"project_name":    agent.ProjectName,
		"project_path":    agent.ProjectPath,
		"project_channel": "#" + agent.ProjectName,
	}

	master, err := renderTemplate(promptDir, "master.md", vars)
	if err != nil {
		master = defaultMasterPrompt(vars)
	}
	inject, err := renderTemplate(promptDir, "inject.md", vars)
	if err != nil {
		inject = defaultInjectPrompt(vars)
	}
	return master, inject, nil
}

func defaultMasterPrompt(vars map[string]string) string {
	return "You are " + vars["agent_name"] + ", registered in channel " + vars["project_channel"] +
		". Use send_message to reply when mentioned, and heartbeat periodically to stay visible."
}

func defaultInjectPrompt(vars map[string]string) string {
	return "New activity in " + vars["project_channel"] + ". Check get_messages for anything addressed to " + vars["agent_name"] + "."
}
