// Package store is TalkTo's data-access layer: schema, migrations, and
// per-entity repositories over a single SQLite database file.
package store

import "time"

// DefaultWorkspaceID is the reserved all-zero id for the workspace created
// on first boot and used for pre-workspace backfill.
const DefaultWorkspaceID = "00000000-0000-0000-0000-000000000000"

// MaxMessageContentLen bounds Message.Content, enforced at every write path.
const MaxMessageContentLen = 32000

type WorkspaceType string

const (
	WorkspaceTypePersonal WorkspaceType = "personal"
	WorkspaceTypeShared   WorkspaceType = "shared"
)

type Workspace struct {
	ID              string        `db:"id"`
	Name            string        `db:"name"`
	Slug            string        `db:"slug"`
	Type            WorkspaceType `db:"type"`
	Description     *string       `db:"description"`
	OnboardingPrompt *string      `db:"onboarding_prompt"`
	HumanWelcome    *string       `db:"human_welcome"`
	CreatedBy       *string       `db:"created_by"`
	CreatedAt       time.Time     `db:"created_at"`
}

type UserType string

const (
	UserTypeHuman UserType = "human"
	UserTypeAgent UserType = "agent"
)

type User struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Type              UserType  `db:"type"`
	DisplayName       *string   `db:"display_name"`
	About             *string   `db:"about"`
	AgentInstructions *string   `db:"agent_instructions"`
	Email             *string   `db:"email"`
	AvatarURL         *string   `db:"avatar_url"`
	CreatedAt         time.Time `db:"created_at"`
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type WorkspaceMember struct {
	WorkspaceID string    `db:"workspace_id"`
	UserID      string    `db:"user_id"`
	Role        Role      `db:"role"`
	JoinedAt    time.Time `db:"joined_at"`
}

type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusOffline AgentStatus = "offline"
)

type Agent struct {
	ID                 string      `db:"id"` // == user.id
	AgentName          string      `db:"agent_name"`
	AgentType          string      `db:"agent_type"`
	ProjectPath        string      `db:"project_path"`
	ProjectName        string      `db:"project_name"`
	Status             AgentStatus `db:"status"`
	Description        *string     `db:"description"`
	Personality        *string     `db:"personality"`
	CurrentTask        *string     `db:"current_task"`
	Gender              *string    `db:"gender"`
	ServerURL          *string     `db:"server_url"`
	ProviderSessionID  *string     `db:"provider_session_id"`
	WorkspaceID        string      `db:"workspace_id"`
}

type AgentSession struct {
	ID            string     `db:"id"`
	AgentID       string     `db:"agent_id"`
	PID           int        `db:"pid"`
	TTY           *string    `db:"tty"`
	IsActive      bool       `db:"is_active"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	LastHeartbeat time.Time  `db:"last_heartbeat"`
}

type ChannelType string

const (
	ChannelTypeGeneral ChannelType = "general"
	ChannelTypeProject ChannelType = "project"
	ChannelTypeCustom  ChannelType = "custom"
	ChannelTypeDM      ChannelType = "dm"
)

type Channel struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Type        ChannelType `db:"type"`
	Topic       *string     `db:"topic"`
	ProjectPath *string     `db:"project_path"`
	WorkspaceID string      `db:"workspace_id"`
	CreatedBy   string      `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	IsArchived  bool        `db:"is_archived"`
	ArchivedAt  *time.Time  `db:"archived_at"`
}

type ChannelMember struct {
	ChannelID string    `db:"channel_id"`
	UserID    string    `db:"user_id"`
	JoinedAt  time.Time `db:"joined_at"`
}

type Message struct {
	ID        string     `db:"id"`
	ChannelID string     `db:"channel_id"`
	SenderID  string     `db:"sender_id"`
	Content   string     `db:"content"`
	Mentions  *string    `db:"mentions"` // JSON-encoded []string
	ParentID  *string    `db:"parent_id"`
	IsPinned  bool       `db:"is_pinned"`
	PinnedAt  *time.Time `db:"pinned_at"`
	PinnedBy  *string    `db:"pinned_by"`
	EditedAt  *time.Time `db:"edited_at"`
	CreatedAt time.Time  `db:"created_at"`
}

type MessageReaction struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

type ReadReceipt struct {
	UserID     string    `db:"user_id"`
	ChannelID  string    `db:"channel_id"`
	LastReadAt time.Time `db:"last_read_at"`
}

type FeatureRequest struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Status      string     `db:"status"`
	Reason      *string    `db:"reason"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

type FeatureVote struct {
	FeatureID string `db:"feature_id"`
	UserID    string `db:"user_id"`
	Vote      int    `db:"vote"`
}

type WorkspaceAPIKey struct {
	ID          string     `db:"id"`
	WorkspaceID string     `db:"workspace_id"`
	KeyHash     string     `db:"key_hash"`
	KeyPrefix   string     `db:"key_prefix"`
	Name        *string    `db:"name"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   *time.Time `db:"expires_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
	LastUsedAt  *time.Time `db:"last_used_at"`
}

type WorkspaceInvite struct {
	ID          string     `db:"id"`
	WorkspaceID string     `db:"workspace_id"`
	Token       string     `db:"token"`
	Role        Role       `db:"role"`
	MaxUses     *int       `db:"max_uses"`
	UseCount    int        `db:"use_count"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
}

type UserSession struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	WorkspaceID  string     `db:"workspace_id"`
	CreatedAt    time.Time  `db:"created_at"`
	ExpiresAt    time.Time  `db:"expires_at"`
	LastActiveAt *time.Time `db:"last_active_at"`
}
