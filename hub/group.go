package hub

import (
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"

	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/metrics"
	"github.com/fahad90fa/oneverse-sub000/wire"
)

// createGroup persists a group conversation with its memberships, invites
// every connected member and confirms to the creator.
//
// The conversation insert and the member inserts are two independent
// store calls. When the second fails the conversation is not retracted;
// the creator gets the error and the orphaned conversation is logged for
// reconciliation.
func (h *Hub) createGroup(src Session, body *wire.GroupCreate) {
	now := time.Now().UTC()
	conv := &database.Conversation{
		ID:          uuid.NewString(),
		Name:        body.Name,
		Description: body.Description,
		CreatorID:   body.CreatorID,
		IsGroup:     true,
		CreatedAt:   now,
	}
	if err := h.store.CreateConversation(conv); err != nil {
		metrics.StoreErrors.WithLabelValues("create_conversation").Inc()
		h.log.Error().Err(err).Str("creator", body.CreatorID).Msg("conversation create failed")
		src.SendEvent(wire.NewEvent(wire.KindGroupCreateError,
			&wire.ErrorReply{Error: "group could not be created"}))
		return
	}

	// The creator joins as admin in the same logical operation, and a
	// member listed twice (or listing the creator) joins once.
	memberSet := mapset.NewSet()
	for _, id := range body.MemberIDs {
		if id != "" {
			memberSet.Add(id)
		}
	}
	memberSet.Remove(body.CreatorID)

	members := make([]*database.ConversationMember, 0, memberSet.Cardinality()+1)
	members = append(members, &database.ConversationMember{
		ConversationID: conv.ID,
		UserID:         body.CreatorID,
		Role:           database.RoleAdmin,
		JoinedAt:       now,
	})
	invitees := make([]string, 0, memberSet.Cardinality())
	for _, m := range memberSet.ToSlice() {
		id := m.(string)
		invitees = append(invitees, id)
		members = append(members, &database.ConversationMember{
			ConversationID: conv.ID,
			UserID:         id,
			Role:           database.RoleMember,
			JoinedAt:       now,
		})
	}

	if err := h.store.AddMembers(members); err != nil {
		metrics.StoreErrors.WithLabelValues("add_members").Inc()
		h.log.Error().Err(err).Str("conversation", conv.ID).
			Msg("membership insert failed, conversation left without members")
		src.SendEvent(wire.NewEvent(wire.KindGroupCreateError,
			&wire.ErrorReply{Error: "group members could not be added"}))
		return
	}
	metrics.GroupsCreated.Inc()

	for _, id := range invitees {
		h.deliver.Deliver(id, wire.NewEvent(wire.KindGroupInvited, &wire.GroupInvite{
			ConversationID: conv.ID,
			Name:           conv.Name,
			InvitedBy:      body.CreatorID,
		}))
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}
	src.SendEvent(wire.NewEvent(wire.KindGroupCreated, &wire.GroupCreated{
		Conversation: wire.Conversation{
			ID:          conv.ID,
			Name:        conv.Name,
			Description: conv.Description,
			CreatorID:   conv.CreatorID,
			IsGroup:     conv.IsGroup,
			CreatedAt:   conv.CreatedAt,
		},
		Members: memberIDs,
	}))
}
