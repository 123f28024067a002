package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core/lostfound"
)

func Test_lostFoundApi_create(t *testing.T) {
	env := setup(t)
	usr, token := env.createUser(t, "Alice", "alice@test.cd")

	valid := `{"title":"Blue umbrella","description":"Left in room 12","type":"LOST","location":"Library",` +
		`"contact":"alice@test.cd","date":"2024-03-01"}`
	tests := []httpTest{
		{name: "auth required", body: []byte(valid), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid type", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"title":"t","description":"d","type":"stolen","location":"l","contact":"c","date":"2024-03-01"}`),
			wantData: []byte(`{"type":"must be one of: lost, found"}`),
		},
		{
			name: "invalid date", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(`{"title":"t","description":"d","type":"found","location":"l","contact":"c","date":"yesterday"}`),
			wantData: []byte(`{"date":"invalid date format"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/lost-found"
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := env.serve(httpTest{method: http.MethodPost, path: "/api/lost-found", token: token, body: []byte(valid)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Message string         `json:"message"`
			Item    lostfound.View `json:"item"`
		}
		unmarshal(t, rec, &resp)
		assert.Equal(t, "Item reported successfully", resp.Message)
		assert.NotEmpty(t, resp.Item.ID)
		assert.Equal(t, lostfound.TypeLost, resp.Item.Type)
		assert.Equal(t, lostfound.StatusOpen, resp.Item.Status)
		assert.Equal(t, usr.ID, resp.Item.UserID)
		assert.True(t, resp.Item.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, resp.Item.IsOwner)
	})
}

func Test_lostFoundApi_query(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	bob, bobToken := env.createUser(t, "Bob", "bob@test.cd")

	svc := lostfound.NewService(env.itemRepo)
	newItem := func(title string) lostfound.NewItem {
		return lostfound.NewItem{Title: title, Description: "d", Type: lostfound.TypeFound, Location: "l", Contact: "c"}
	}
	keys, err := svc.Create(context.Background(), alice.ID, newItem("Keys"))
	require.NoError(t, err)
	wallet, err := svc.Create(context.Background(), bob.ID, newItem("Wallet"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantOwner []bool
	}{
		{name: "anonymous", wantOwner: []bool{false, false}},
		{name: "alice", token: aliceToken, wantOwner: []bool{false, true}},
		{name: "bob", token: bobToken, wantOwner: []bool{true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(httpTest{path: "/api/lost-found", token: tt.token})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Items []lostfound.View `json:"items"`
			}
			unmarshal(t, rec, &resp)
			require.Len(t, resp.Items, 2)
			assert.Equal(t, wallet.ID, resp.Items[0].ID) // newest first
			assert.Equal(t, keys.ID, resp.Items[1].ID)
			for i, want := range tt.wantOwner {
				assert.Equal(t, want, resp.Items[i].IsOwner, resp.Items[i].Title)
			}
		})
	}

	t.Run("invalid token", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/api/lost-found", token: "lol"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_lostFoundApi_ownerActions(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	_, bobToken := env.createUser(t, "Bob", "bob@test.cd")

	it, err := lostfound.NewService(env.itemRepo).Create(
		context.Background(),
		alice.ID,
		lostfound.NewItem{Title: "Keys", Description: "d", Type: lostfound.TypeFound, Location: "l", Contact: "c"},
	)
	require.NoError(t, err)
	path := "/api/lost-found/" + it.ID
	notFound := marchallObj(t, httpErr{Error: "Item not found or unauthorized"})

	tests := []httpTest{
		{
			name: "status: not the owner", method: http.MethodPut, path: path + "/status", token: bobToken,
			body: []byte(`{"status":"resolved"}`), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "status: invalid", method: http.MethodPut, path: path + "/status", token: aliceToken,
			body: []byte(`{"status":"lost"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"must be one of: open, closed, resolved"}`),
		},
		{
			name: "status", method: http.MethodPut, path: path + "/status", token: aliceToken,
			body: []byte(`{"status":" Resolved "}`), wantCode: http.StatusOK,
		},
		{name: "delete: not the owner", method: http.MethodDelete, path: path, token: bobToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "delete", method: http.MethodDelete, path: path, token: aliceToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"success": "Item deleted successfully"}),
		},
		{name: "delete: gone", method: http.MethodDelete, path: path, token: aliceToken, wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.name == "status" {
				var resp struct {
					Item lostfound.View `json:"item"`
				}
				unmarshal(t, rec, &resp)
				assert.Equal(t, lostfound.StatusResolved, resp.Item.Status)
				assert.True(t, resp.Item.IsOwner)
			}
		})
	}
}
