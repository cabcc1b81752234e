package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/driftlog/driftlog-server/internal/domain"
	domainerrors "github.com/driftlog/driftlog-server/internal/errors"
)

func (s *Server) registerShareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "enableShareLink",
		Method:      http.MethodPost,
		Path:        "/api/v1/trips/{id}/share",
		Summary:     "Enable share link",
		Description: "Issues (or re-enables) the trip's share slug and code. Owner only",
		Tags:        []string{"Sharing"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEnableShareLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "disableShareLink",
		Method:      http.MethodDelete,
		Path:        "/api/v1/trips/{id}/share",
		Summary:     "Disable share link",
		Description: "Disables the trip's share link without discarding the slug and code. Owner only",
		Tags:        []string{"Sharing"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDisableShareLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "joinTrip",
		Method:      http.MethodPost,
		Path:        "/api/v1/join/{token}",
		Summary:     "Join trip via share link",
		Description: "Redeems a share slug or code, granting the caller viewer access",
		Tags:        []string{"Sharing"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleJoinTrip)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/trips/{id}/members",
		Summary:     "List trip members",
		Description: "Returns the trip's membership, owner first",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMemberRole",
		Method:      http.MethodPatch,
		Path:        "/api/v1/trips/{id}/members/{userID}",
		Summary:     "Update member role",
		Description: "Changes a member's role. Owners may set any non-owner role; collaborators may only promote viewers",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMemberRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/trips/{id}/members/{userID}",
		Summary:     "Remove member",
		Description: "Revokes a member's access. Owner only; the owner cannot be removed",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMember)
}

// === DTOs ===

// ShareLinkInput contains parameters for share link operations.
type ShareLinkInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// ShareLinkResponse contains the trip's share link state.
type ShareLinkResponse struct {
	ShareSlug        string `json:"share_slug" doc:"Share link slug"`
	ShareCode        string `json:"share_code" doc:"Short share code"`
	ShareLinkEnabled bool   `json:"share_link_enabled" doc:"Whether the link is active"`
}

// ShareLinkOutput wraps the share link response for Huma.
type ShareLinkOutput struct {
	Body ShareLinkResponse
}

// JoinTripInput contains the token being redeemed.
type JoinTripInput struct {
	Authorization string `header:"Authorization"`
	Token         string `path:"token" doc:"Share slug or code"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// JoinTripResponse is the result of redeeming a share link.
type JoinTripResponse struct {
	Trip          TripResponse   `json:"trip" doc:"Joined trip"`
	Membership    MemberResponse `json:"membership" doc:"Caller's membership row"`
	AlreadyMember bool           `json:"already_member" doc:"True if the caller was already a member"`
}

// JoinTripOutput wraps the join response for Huma.
type JoinTripOutput struct {
	Body JoinTripResponse
}

// ListMembersInput contains parameters for listing members.
type ListMembersInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
}

// ListMembersResponse contains the trip's membership rows.
type ListMembersResponse struct {
	Members []MemberResponse `json:"members" doc:"Membership rows, owner first"`
}

// ListMembersOutput wraps the members response for Huma.
type ListMembersOutput struct {
	Body ListMembersResponse
}

// UpdateMemberRoleRequest is the request body for a role change.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required" enum:"collaborator,viewer" doc:"New role"`
}

// UpdateMemberRoleInput wraps the role change request for Huma.
type UpdateMemberRoleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
	UserID        string `path:"userID" doc:"Target member user ID"`
	Body          UpdateMemberRoleRequest
}

// MemberOutput wraps a single membership row for Huma.
type MemberOutput struct {
	Body MemberResponse
}

// RemoveMemberInput contains parameters for removing a member.
type RemoveMemberInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Trip ID"`
	UserID        string `path:"userID" doc:"Target member user ID"`
}

// === Handlers ===

func (s *Server) handleEnableShareLink(ctx context.Context, input *ShareLinkInput) (*ShareLinkOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trip, err := s.services.Access.GenerateShareLink(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &ShareLinkOutput{
		Body: ShareLinkResponse{
			ShareSlug:        trip.ShareSlug,
			ShareCode:        trip.ShareCode,
			ShareLinkEnabled: trip.ShareLinkEnabled,
		},
	}, nil
}

func (s *Server) handleDisableShareLink(ctx context.Context, input *ShareLinkInput) (*ShareLinkOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	trip, err := s.services.Access.DisableShareLink(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &ShareLinkOutput{
		Body: ShareLinkResponse{
			ShareSlug:        trip.ShareSlug,
			ShareCode:        trip.ShareCode,
			ShareLinkEnabled: trip.ShareLinkEnabled,
		},
	}, nil
}

func (s *Server) handleJoinTrip(ctx context.Context, input *JoinTripInput) (*JoinTripOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkRateLimit(s.joinRateLimiter, ip, "/api/v1/join"); err != nil {
		return nil, err
	}

	result, err := s.services.Access.JoinViaLink(ctx, input.Token, userID)
	if err != nil {
		return nil, err
	}

	return &JoinTripOutput{
		Body: JoinTripResponse{
			Trip:          mapTrip(result.Trip),
			Membership:    mapMember(result.Permission),
			AlreadyMember: result.AlreadyMember,
		},
	}, nil
}

func (s *Server) handleListMembers(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Access.ListMembers(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]MemberResponse, len(members))
	for i, m := range members {
		resp[i] = mapMember(m)
	}

	return &ListMembersOutput{Body: ListMembersResponse{Members: resp}}, nil
}

func (s *Server) handleUpdateMemberRole(ctx context.Context, input *UpdateMemberRoleInput) (*MemberOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	role, ok := domain.ParseRole(input.Body.Role)
	if !ok || role == domain.RoleOwner {
		return nil, domainerrors.Validationf("invalid role %q", input.Body.Role)
	}

	perm, err := s.services.Access.UpdatePermission(ctx, input.ID, userID, input.UserID, role)
	if err != nil {
		return nil, err
	}

	return &MemberOutput{Body: mapMember(perm)}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *RemoveMemberInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Access.RemoveAccess(ctx, input.ID, userID, input.UserID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Member removed"}}, nil
}
