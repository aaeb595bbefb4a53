package agent

import (
	"fmt"
	"strings"

	"github.com/miniclaw/miniclaw/pkg/miniclaw/llm"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/memory"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/session"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/skills"
	"github.com/miniclaw/miniclaw/pkg/miniclaw/workspace"
)

// historyWindow is how many session messages are replayed to the provider.
const historyWindow = 30

// ContextBuilder assembles the provider-facing message list for a turn:
// system prompt from the workspace markdown plus memory, then the recent
// session history translated to wire messages.
type ContextBuilder struct {
	Workspace *workspace.Workspace
	Memory    *memory.Store
	ShortTerm *memory.ShortTerm
	Skills    *skills.Library
}

// SystemPrompt renders the system message from the workspace seed files
// and the memory context. Missing pieces are skipped silently; an empty
// workspace still yields a usable prompt.
func (b *ContextBuilder) SystemPrompt() string {
	var sections []string

	for _, name := range []string{workspace.SoulFile, workspace.AgentsFile, workspace.UserFile, workspace.ToolsFile} {
		if content := strings.TrimSpace(b.Workspace.ReadSeed(name)); content != "" {
			sections = append(sections, content)
		}
	}

	if b.Memory != nil {
		if longTerm, err := b.Memory.ReadLongTerm(); err == nil && strings.TrimSpace(longTerm) != "" {
			sections = append(sections, "# Long-term memory\n\n"+strings.TrimSpace(longTerm))
		}
		if daily, err := b.Memory.ReadDaily(); err == nil && strings.TrimSpace(daily) != "" {
			sections = append(sections, "# Today's notes\n\n"+strings.TrimSpace(daily))
		}
	}

	if b.ShortTerm != nil {
		if notes := b.ShortTerm.Render(); notes != "" {
			sections = append(sections, "# Short-term notes\n\n"+notes)
		}
	}

	if b.Skills != nil {
		if list, err := b.Skills.List(); err == nil && len(list) > 0 {
			var sb strings.Builder
			sb.WriteString("# Available skills\n\nUse the skill tool with action='read' to load one.\n\n")
			for _, m := range list {
				fmt.Fprintf(&sb, "- %s: %s\n", m.Name, m.Description)
			}
			sections = append(sections, strings.TrimSpace(sb.String()))
		}
	}

	if len(sections) == 0 {
		return "You are a helpful assistant."
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// Build produces the full provider message list for a session. The
// incoming user turn is expected to already be appended to the session.
func (b *ContextBuilder) Build(sess *session.Session) []llm.Message {
	out := []llm.Message{{Role: llm.RoleSystem, Content: b.SystemPrompt()}}

	history := sess.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	// Never start the replay on a dangling tool result; providers reject a
	// tool message with no preceding assistant tool_calls message.
	for len(history) > 0 && history[0].Role == session.RoleToolResult {
		history = history[1:]
	}

	for _, msg := range history {
		out = append(out, translateMessage(msg))
	}
	return out
}

// translateMessage maps a stored session message onto the provider wire
// format. tool_result becomes role=tool carrying the originating call id.
func translateMessage(msg session.Message) llm.Message {
	switch msg.Role {
	case session.RoleToolResult:
		return llm.Message{
			Role:       llm.RoleTool,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.ToolName,
		}
	case session.RoleAssistant:
		lm := llm.Message{Role: llm.RoleAssistant, Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			lm.ToolCalls = append(lm.ToolCalls, llm.ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		return lm
	default:
		return llm.Message{Role: msg.Role, Content: msg.Content}
	}
}
