package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/user"
)

func Test_clubApi_create(t *testing.T) {
	env := setup(t)
	owner, ownerToken := env.createUser(t, "Owner", "owner@test.cd", user.RoleClubOwner)
	_, studentToken := env.createUser(t, "Student", "student@test.cd")

	tests := []httpTest{
		{name: "auth required", body: []byte(`{"name":"Chess"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "club owner required", body: []byte(`{"name":"Chess"}`), token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Insufficient permissions"}),
		},
		{
			name: "blank name", body: []byte(`{"name":"   "}`), token: ownerToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"this field is required"}`),
		},
		{
			name: "invalid social link", body: []byte(`{"name":"Chess","social_links":{"twitter":"lol"}}`), token: ownerToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/clubs"
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := env.serve(httpTest{
			method: http.MethodPost,
			path:   "/api/clubs",
			token:  ownerToken,
			body:   []byte(`{"name":" Chess ","description":"Checkmate","social_links":{"twitter":"https://twitter.com/chess"}}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var c club.Club
		unmarshal(t, rec, &c)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "Chess", c.Name)
		assert.Equal(t, owner.ID, c.OwnerID)
		assert.Equal(t, []string{owner.ID}, c.Members)
		assert.Equal(t, map[string]string{"twitter": "https://twitter.com/chess"}, c.SocialLinks)
	})

	t.Run("name taken", func(t *testing.T) {
		checkCodeAndData(
			t,
			httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"A club with this name already exists"}`)},
			env.serve(httpTest{method: http.MethodPost, path: "/api/clubs", token: ownerToken, body: []byte(`{"name":"Chess"}`)}),
		)
	})
}

func Test_clubApi_query(t *testing.T) {
	env := setup(t)
	owner, token := env.createUser(t, "Owner", "owner@test.cd", user.RoleClubOwner)

	svc := club.NewService(env.clubRepo)
	chess, err := svc.Create(context.Background(), owner.ID, club.NewClub{Name: "Chess"})
	require.NoError(t, err)
	drama, err := svc.Create(context.Background(), owner.ID, club.NewClub{Name: "Drama"})
	require.NoError(t, err)

	rec := env.serve(httpTest{path: "/api/clubs", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var clubs []club.Club
	unmarshal(t, rec, &clubs)
	require.Len(t, clubs, 2)
	assert.Equal(t, drama.ID, clubs[0].ID)
	assert.Equal(t, chess.ID, clubs[1].ID)
}

func Test_clubApi_membership(t *testing.T) {
	env := setup(t)
	owner, ownerToken := env.createUser(t, "Owner", "owner@test.cd", user.RoleClubOwner)
	student, studentToken := env.createUser(t, "Student", "student@test.cd")

	c, err := club.NewService(env.clubRepo).Create(context.Background(), owner.ID, club.NewClub{Name: "Chess"})
	require.NoError(t, err)
	body := marchallObj(t, club.Membership{ClubID: c.ID})
	unknown := marchallObj(t, club.Membership{ClubID: "3f0c4a8e-6a0b-4a43-9a57-3b3c1c0b9d11"})

	tests := []httpTest{
		{
			name: "join: missing club", path: "/api/clubs/join", body: []byte(`{}`), token: studentToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"club_id":"this field is required"}`),
		},
		{
			name: "join: unknown club", path: "/api/clubs/join", body: unknown, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Club not found"}),
		},
		{
			name: "leave: not a member", path: "/api/clubs/leave", body: body, token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Not a member of this club"}),
		},
		{
			name: "join", path: "/api/clubs/join", body: body, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"success": "Joined club successfully"}),
		},
		{
			name: "join: already a member", path: "/api/clubs/join", body: body, token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Already a member of this club"}),
		},
		{
			name: "leave: owner", path: "/api/clubs/leave", body: body, token: ownerToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "Club owner cannot leave the club"}),
		},
		{
			name: "leave", path: "/api/clubs/leave", body: body, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"success": "Left club successfully"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	got, err := env.clubRepo.GetClub(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{owner.ID}, got.Members)
	assert.False(t, got.IsMember(student.ID))
}
