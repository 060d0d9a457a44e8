package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func seedChannelAndUser(t *testing.T, st *Store) (*Channel, *User) {
	t.Helper()
	ctx := context.Background()

	user := &User{ID: uuid.NewString(), Name: "alice", Type: UserTypeHuman}
	require.NoError(t, st.Users.Create(ctx, user))

	ch := &Channel{ID: uuid.NewString(), Name: "#general", Type: ChannelTypeGeneral, WorkspaceID: DefaultWorkspaceID, CreatedBy: user.ID}
	require.NoError(t, st.Channels.Create(ctx, ch))

	return ch, user
}

func TestMessageRepo_CreateRejectsContentOverMaxLength(t *testing.T) {
	st := newTestStore(t)
	ch, user := seedChannelAndUser(t, st)
	ctx := context.Background()

	oversized := make([]byte, MaxMessageContentLen+1)
	for i := range oversized {
		oversized[i] = 'x'
	}
	msg := &Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: user.ID, Content: string(oversized)}
	require.Error(t, st.Messages.Create(ctx, msg))
}

func TestMessageRepo_TogglePinIsIdempotentBothWays(t *testing.T) {
	st := newTestStore(t)
	ch, user := seedChannelAndUser(t, st)
	ctx := context.Background()

	msg := &Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: user.ID, Content: "hello"}
	require.NoError(t, st.Messages.Create(ctx, msg))

	pinned, err := st.Messages.TogglePin(ctx, msg.ID, user.ID)
	require.NoError(t, err)
	require.True(t, pinned)

	unpinned, err := st.Messages.TogglePin(ctx, msg.ID, user.ID)
	require.NoError(t, err)
	require.False(t, unpinned)
}

func TestMessageRepo_ToggleReactionTogglesOnAndOff(t *testing.T) {
	st := newTestStore(t)
	ch, user := seedChannelAndUser(t, st)
	ctx := context.Background()

	msg := &Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: user.ID, Content: "hello"}
	require.NoError(t, st.Messages.Create(ctx, msg))

	added, err := st.Messages.ToggleReaction(ctx, msg.ID, user.ID, "👍")
	require.NoError(t, err)
	require.True(t, added)

	removed, err := st.Messages.ToggleReaction(ctx, msg.ID, user.ID, "👍")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMessageRepo_TouchReadReceiptNeverMovesBackwards(t *testing.T) {
	st := newTestStore(t)
	ch, user := seedChannelAndUser(t, st)
	ctx := context.Background()

	readReceiptAt := func() time.Time {
		var rr ReadReceipt
		require.NoError(t, st.db.GetContext(ctx, &rr, `SELECT * FROM read_receipts WHERE user_id = ? AND channel_id = ?`, user.ID, ch.ID))
		return rr.LastReadAt
	}

	require.NoError(t, st.Messages.TouchReadReceipt(ctx, user.ID, ch.ID))
	first := readReceiptAt()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, st.Messages.TouchReadReceipt(ctx, user.ID, ch.ID))
	second := readReceiptAt()

	require.True(t, !second.Before(first))
}

func TestMessageRepo_SearchEscapesLikeMetacharacters(t *testing.T) {
	st := newTestStore(t)
	ch, user := seedChannelAndUser(t, st)
	ctx := context.Background()

	literal := &Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: user.ID, Content: "100% done_deal"}
	noisy := &Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: user.ID, Content: "100X done9deal"}
	require.NoError(t, st.Messages.Create(ctx, literal))
	require.NoError(t, st.Messages.Create(ctx, noisy))

	results, err := st.Messages.Search(ctx, DefaultWorkspaceID, "100% done_deal", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, literal.ID, results[0].Message.ID)
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `100\% done\_deal\\x`, EscapeLike(`100% done_deal\x`))
}
