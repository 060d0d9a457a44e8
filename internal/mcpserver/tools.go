package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hyperslack/talkto/internal/events"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/store"
)

// ToolFunc is the signature every MCP tool implements. Semantic failures
// are returned as {"error": "..."} in the result map, never as an err
// return — per spec §4.2, tool failures "should not crash the session".
type ToolFunc func(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error)

var toolRegistry = map[string]ToolFunc{
	"register":               toolRegister,
	"send_message":           toolSendMessage,
	"get_messages":           toolGetMessages,
	"create_channel":         toolCreateChannel,
	"join_channel":           toolJoinChannel,
	"list_channels":          toolListChannels,
	"list_agents":            toolListAgents,
	"update_profile":         toolUpdateProfile,
	"heartbeat":              toolHeartbeat,
	"disconnect":             toolDisconnect,
	"get_feature_requests":   toolGetFeatureRequests,
	"create_feature_request": toolCreateFeatureRequest,
	"vote_feature":           toolVoteFeature,
	"search_messages":        toolSearchMessages,
	"edit_message":           toolEditMessage,
	"react_message":          toolReactMessage,
}

// toolDefinitions lists the 16 tools for tools/list, per spec §6 ("each tool result is a content array...").
func toolDefinitions() []mcp.Tool {
	names := []string{
		"register", "send_message", "get_messages", "create_channel", "join_channel",
		"list_channels", "list_agents", "update_profile", "heartbeat", "disconnect",
		"get_feature_requests", "create_feature_request", "vote_feature",
		"search_messages", "edit_message", "react_message",
	}
	defs := make([]mcp.Tool, 0, len(names))
	for _, n := range names {
		defs = append(defs, mcp.NewTool(n))
	}
	return defs
}

func errResult(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argFloat(args map[string]interface{}, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

// --- register -------------------------------------------------------

func toolRegister(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	sessionIDArg := argString(args, "session_id")
	if sessionIDArg == "" {
		return errResult("session_id is required"), nil
	}
	projectPath := argString(args, "project_path")
	agentName := argString(args, "agent_name")
	agentType := argString(args, "agent_type")
	if agentType == "" {
		agentType = "generic"
	}

	st := h.Store

	if agentName != "" {
		if existing, err := st.Agents.GetByName(ctx, agentName); err == nil && existing != nil {
			if err := st.Agents.SetStatus(ctx, existing.ID, store.AgentStatusOnline); err != nil {
				return nil, err
			}
			session.setRegisteredAgentID(existing.ID)
			return registrationResult(ctx, h, existing)
		}
	} else {
		generated, err := GenerateAgentName(ctx, st.Agents, sessionIDArg)
		if err != nil {
			return nil, err
		}
		agentName = generated
	}

	projectName := agentName
	if projectPath != "" {
		projectName = filepath.Base(projectPath)
	}

	userID := uuid.NewString()
	now := time.Now().UTC()
	if err := st.Users.Create(ctx, &store.User{
		ID: userID, Name: agentName, Type: store.UserTypeAgent, CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	agent := &store.Agent{
		ID: userID, AgentName: agentName, AgentType: agentType,
		ProjectPath: projectPath, ProjectName: projectName,
		Status: store.AgentStatusOnline, WorkspaceID: session.WorkspaceID,
	}
	if err := st.Agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	if err := st.Workspaces.AddMember(ctx, session.WorkspaceID, userID, store.RoleMember); err != nil {
		return nil, err
	}

	generalChannel, err := ensureGeneralChannel(ctx, st, session.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if err := st.Channels.AddMember(ctx, generalChannel.ID, userID); err != nil {
		return nil, err
	}

	projectChannel, err := ensureProjectChannel(ctx, st, session.WorkspaceID, userID, projectName)
	if err != nil {
		return nil, err
	}
	if err := st.Channels.AddMember(ctx, projectChannel.ID, userID); err != nil {
		return nil, err
	}

	session.setRegisteredAgentID(userID)
	return registrationResult(ctx, h, agent)
}

func ensureGeneralChannel(ctx context.Context, st *store.Store, workspaceID, createdBy string) (*store.Channel, error) {
	if c, err := st.Channels.GetByName(ctx, workspaceID, "#general"); err != nil {
		return nil, err
	} else if c != nil {
		return c, nil
	}
	c := &store.Channel{
		ID: uuid.NewString(), Name: "#general", Type: store.ChannelTypeGeneral,
		WorkspaceID: workspaceID, CreatedBy: createdBy,
	}
	if err := st.Channels.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func ensureProjectChannel(ctx context.Context, st *store.Store, workspaceID, createdBy, projectName string) (*store.Channel, error) {
	name := "#" + projectName
	if c, err := st.Channels.GetByName(ctx, workspaceID, name); err != nil {
		return nil, err
	} else if c != nil {
		return c, nil
	}
	c := &store.Channel{
		ID: uuid.NewString(), Name: name, Type: store.ChannelTypeProject,
		WorkspaceID: workspaceID, CreatedBy: createdBy,
	}
	if err := st.Channels.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func registrationResult(ctx context.Context, h *Handlers, agent *store.Agent) (map[string]interface{}, error) {
	master, inject, err := RenderOnboardingPrompts(h.PromptDir, agent)
	if err != nil {
		h.Log.WithError(err).Warn("render onboarding prompts failed")
	}
	return map[string]interface{}{
		"agent_name":      agent.AgentName,
		"project_channel": "#" + agent.ProjectName,
		"master_prompt":   master,
		"inject_prompt":   inject,
	}, nil
}

// --- send_message -----------------------------------------------------

func toolSendMessage(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	channelArg := argString(args, "channel")
	content := argString(args, "content")
	if channelArg == "" || content == "" {
		return errResult("channel and content are required"), nil
	}
	if len(content) > store.MaxMessageContentLen {
		return errResult("content exceeds maximum length"), nil
	}

	channel, err := h.Store.Channels.Resolve(ctx, session.WorkspaceID, channelArg)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return errResult("channel not found: " + channelArg), nil
	}

	var mentions []string
	if raw, ok := args["mentions"].([]interface{}); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok {
				mentions = append(mentions, s)
			}
		}
	}
	mentions = append(mentions, invocationMentionsFrom(content)...)

	msg := &store.Message{ID: uuid.NewString(), ChannelID: channel.ID, SenderID: agentID, Content: content}
	if len(mentions) > 0 {
		encoded, _ := json.Marshal(dedupe(mentions))
		s := string(encoded)
		msg.Mentions = &s
	}
	if err := h.Store.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	h.Hub.Broadcast(events.New(events.TypeNewMessage, channel.WorkspaceID, channel.ID, msg))

	if agentIDs, err := mentionedAgentIDs(ctx, h, channel.WorkspaceID, mentions); err == nil && len(agentIDs) > 0 {
		h.Engine.Trigger(ctx, channel, msg, agentIDs, 1)
	}

	return map[string]interface{}{"id": msg.ID, "channel": channel.Name}, nil
}

func invocationMentionsFrom(content string) []string {
	return invocation.ExtractMentions(content)
}

func splitFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func mentionedAgentIDs(ctx context.Context, h *Handlers, workspaceID string, names []string) ([]string, error) {
	var ids []string
	for _, name := range dedupe(names) {
		a, err := h.Store.Agents.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if a != nil && a.WorkspaceID == workspaceID {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

// --- get_messages -------------------------------------------------------

func toolGetMessages(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	const cap = 10
	limit := int(argFloat(args, "limit", cap))
	if limit > cap || limit <= 0 {
		limit = cap
	}

	agent, err := h.Store.Agents.Get(ctx, agentID)
	if err != nil || agent == nil {
		return errResult("agent not found"), nil
	}

	var out []store.Message
	if ch := argString(args, "channel"); ch != "" {
		channel, err := h.Store.Channels.Resolve(ctx, session.WorkspaceID, ch)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return errResult("channel not found: " + ch), nil
		}
		out, err = h.Store.Messages.ListByChannel(ctx, channel.ID, "", limit)
		if err != nil {
			return nil, err
		}
	} else {
		mentioning, err := h.Store.Messages.ListMentioning(ctx, session.WorkspaceID, agent.AgentName, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, mentioning...)

		if len(out) < limit {
			if projectChannel, err := h.Store.Channels.GetByName(ctx, session.WorkspaceID, "#"+agent.ProjectName); err == nil && projectChannel != nil {
				rest, err := h.Store.Messages.ListByChannel(ctx, projectChannel.ID, "", limit-len(out))
				if err == nil {
					out = append(out, rest...)
				}
			}
		}
		if len(out) < limit {
			joined, err := h.Store.Channels.ListForUser(ctx, session.WorkspaceID, agentID)
			if err == nil {
				for _, c := range joined {
					if len(out) >= limit {
						break
					}
					rest, err := h.Store.Messages.ListByChannel(ctx, c.ID, "", limit-len(out))
					if err == nil {
						out = append(out, rest...)
					}
				}
			}
		}
	}
	if len(out) > cap {
		out = out[:cap]
	}
	return map[string]interface{}{"messages": out}, nil
}

// --- channels ---------------------------------------------------------

func toolCreateChannel(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	name := argString(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}
	if name[0] != '#' {
		name = "#" + name
	}
	if existing, err := h.Store.Channels.GetByName(ctx, session.WorkspaceID, name); err != nil {
		return nil, err
	} else if existing != nil {
		return errResult("channel already exists: " + name), nil
	}
	c := &store.Channel{
		ID: uuid.NewString(), Name: name, Type: store.ChannelTypeCustom,
		WorkspaceID: session.WorkspaceID, CreatedBy: agentID,
	}
	if err := h.Store.Channels.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := h.Store.Channels.AddMember(ctx, c.ID, agentID); err != nil {
		return nil, err
	}
	h.Hub.Broadcast(events.New(events.TypeChannelCreated, session.WorkspaceID, c.ID, c))
	return map[string]interface{}{"id": c.ID, "name": c.Name}, nil
}

func toolJoinChannel(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	channel, err := h.Store.Channels.Resolve(ctx, session.WorkspaceID, argString(args, "channel"))
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return errResult("channel not found"), nil
	}
	if err := h.Store.Channels.AddMember(ctx, channel.ID, agentID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": channel.ID, "name": channel.Name}, nil
}

func toolListChannels(ctx context.Context, h *Handlers, session *SessionState, _ map[string]interface{}) (map[string]interface{}, error) {
	if _, errResultVal := requireRegistered(session); errResultVal != nil {
		return errResultVal, nil
	}
	cs, err := h.Store.Channels.ListByWorkspace(ctx, session.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"channels": cs}, nil
}

func toolListAgents(ctx context.Context, h *Handlers, session *SessionState, _ map[string]interface{}) (map[string]interface{}, error) {
	if _, errResultVal := requireRegistered(session); errResultVal != nil {
		return errResultVal, nil
	}
	as, err := h.Store.Agents.ListByWorkspace(ctx, session.WorkspaceID)
	if err != nil {
		return nil, err
	}
	type agentDTO struct {
		store.Agent
		IsGhost bool `json:"is_ghost"`
	}
	out := make([]agentDTO, 0, len(as))
	for _, a := range as {
		out = append(out, agentDTO{Agent: a, IsGhost: h.Liveness.IsGhost(a.ID)})
	}
	return map[string]interface{}{"agents": out}, nil
}

// --- profile / lifecycle -------------------------------------------------

func toolUpdateProfile(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	agent, err := h.Store.Agents.Get(ctx, agentID)
	if err != nil || agent == nil {
		return errResult("agent not found"), nil
	}
	if v := argString(args, "description"); v != "" {
		agent.Description = &v
	}
	if v := argString(args, "personality"); v != "" {
		agent.Personality = &v
	}
	if v := argString(args, "current_task"); v != "" {
		agent.CurrentTask = &v
	}
	if v := argString(args, "gender"); v != "" {
		agent.Gender = &v
	}
	if err := h.Store.Agents.UpdateProfile(ctx, agent); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

func toolHeartbeat(ctx context.Context, h *Handlers, session *SessionState, _ map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	if err := h.Store.Agents.Heartbeat(ctx, agentID); err != nil {
		return nil, err
	}
	if err := h.Store.Agents.SetStatus(ctx, agentID, store.AgentStatusOnline); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

func toolDisconnect(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	if err := h.Store.Agents.SetStatus(ctx, agentID, store.AgentStatusOffline); err != nil {
		return nil, err
	}
	if err := h.Store.Agents.CloseSession(ctx, agentID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

// --- feature requests ----------------------------------------------------

func toolGetFeatureRequests(ctx context.Context, h *Handlers, session *SessionState, _ map[string]interface{}) (map[string]interface{}, error) {
	if _, errResultVal := requireRegistered(session); errResultVal != nil {
		return errResultVal, nil
	}
	fs, err := h.Store.Features.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"features": fs}, nil
}

func toolCreateFeatureRequest(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	title := argString(args, "title")
	desc := argString(args, "description")
	if title == "" {
		return errResult("title is required"), nil
	}
	f := &store.FeatureRequest{ID: uuid.NewString(), Title: title, Description: desc, CreatedBy: agentID}
	if err := h.Store.Features.Create(ctx, f); err != nil {
		return nil, err
	}
	h.Hub.Broadcast(events.New(events.TypeFeatureUpdate, session.WorkspaceID, "", f))
	return map[string]interface{}{"id": f.ID}, nil
}

func toolVoteFeature(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	featureID := argString(args, "feature_id")
	vote := int(argFloat(args, "vote", 0))
	if vote != 1 && vote != -1 {
		return errResult("vote must be 1 or -1"), nil
	}
	if err := h.Store.Features.Vote(ctx, featureID, agentID, vote); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

// --- messages -----------------------------------------------------------

func toolSearchMessages(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	if _, errResultVal := requireRegistered(session); errResultVal != nil {
		return errResultVal, nil
	}
	query := argString(args, "query")
	channelArg := argString(args, "channel")
	channelID := ""
	if channelArg != "" {
		c, err := h.Store.Channels.Resolve(ctx, session.WorkspaceID, channelArg)
		if err != nil {
			return nil, err
		}
		if c != nil {
			channelID = c.ID
		}
	}
	results, err := h.Store.Messages.Search(ctx, session.WorkspaceID, query, channelID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"messages": results}, nil
}

func toolEditMessage(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	id := argString(args, "id")
	content := argString(args, "content")
	msg, err := h.Store.Messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return errResult("message not found"), nil
	}
	if msg.SenderID != agentID {
		return errResult("cannot edit another user's message"), nil
	}
	if err := h.Store.Messages.Edit(ctx, id, content); err != nil {
		return nil, err
	}
	h.Hub.Broadcast(events.New(events.TypeMessageEdited, session.WorkspaceID, msg.ChannelID,
		map[string]string{"id": id, "content": content}))
	return map[string]interface{}{"ok": true}, nil
}

func toolReactMessage(ctx context.Context, h *Handlers, session *SessionState, args map[string]interface{}) (map[string]interface{}, error) {
	agentID, errResultVal := requireRegistered(session)
	if errResultVal != nil {
		return errResultVal, nil
	}
	id := argString(args, "id")
	emoji := argString(args, "emoji")
	msg, err := h.Store.Messages.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return errResult("message not found"), nil
	}
	added, err := h.Store.Messages.ToggleReaction(ctx, id, agentID, emoji)
	if err != nil {
		return nil, err
	}
	h.Hub.Broadcast(events.New(events.TypeReaction, session.WorkspaceID, msg.ChannelID,
		map[string]interface{}{"message_id": id, "user_id": agentID, "emoji": emoji, "added": added}))
	return map[string]interface{}{"added": added}, nil
}
