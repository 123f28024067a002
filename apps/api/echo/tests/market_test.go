package tests

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core/market"
)

func createListing(t *testing.T, env *testEnv, userID, title string) market.Listing {
	t.Helper()
	price := 25.0
	l, err := market.NewService(env.listingRepo, nil).Create(context.Background(), userID, market.NewListing{
		Title: title, Description: "d", Price: &price, Condition: "used", Category: "books", Contact: "c",
	})
	require.NoError(t, err)
	return l
}

func Test_marketApi_create(t *testing.T) {
	env := setup(t)
	usr, token := env.createUser(t, "Alice", "alice@test.cd")

	tests := []httpTest{
		{name: "auth required", body: []byte(`{}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "negative price", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"title":"t","description":"d","price":-1,"condition":"new","category":"c","contact":"c"}`),
		},
		{
			name: "missing price", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(`{"title":"t","description":"d","condition":"new","category":"c","contact":"c"}`),
			wantData: []byte(`{"price":"this field is required"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/smart-sell"
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	t.Run("free item", func(t *testing.T) {
		rec := env.serve(httpTest{
			method: http.MethodPost,
			path:   "/api/smart-sell",
			token:  token,
			body:   []byte(`{"title":"Calculus book","description":"Barely used","price":0,"condition":"good","category":"books","contact":"alice@test.cd"}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Message string      `json:"message"`
			Item    market.View `json:"item"`
		}
		unmarshal(t, rec, &resp)
		assert.Equal(t, "Item listed successfully", resp.Message)
		assert.Equal(t, 0.0, resp.Item.Price)
		assert.Equal(t, usr.ID, resp.Item.UserID)
		assert.Equal(t, []string{}, resp.Item.Images)
		assert.True(t, resp.Item.IsOwner)
	})
}

func Test_marketApi_query(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	bob, _ := env.createUser(t, "Bob", "bob@test.cd")
	book := createListing(t, env, alice.ID, "Book")
	lamp := createListing(t, env, bob.ID, "Lamp")

	for _, token := range []string{"", aliceToken} {
		rec := env.serve(httpTest{path: "/api/smart-sell", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Items []market.View `json:"items"`
		}
		unmarshal(t, rec, &resp)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, lamp.ID, resp.Items[0].ID)
		assert.Equal(t, book.ID, resp.Items[1].ID)
		assert.False(t, resp.Items[0].IsOwner)
		assert.Equal(t, token != "", resp.Items[1].IsOwner)
	}
}

func Test_marketApi_update(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	_, bobToken := env.createUser(t, "Bob", "bob@test.cd")
	book := createListing(t, env, alice.ID, "Book")
	path := "/api/smart-sell/" + book.ID

	tests := []httpTest{
		{
			name: "not the owner", token: bobToken, body: []byte(`{"price":10}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Item not found or unauthorized"}),
		},
		{
			name: "no changes", token: aliceToken, body: []byte(`{"title":"Book","price":25}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "No changes made to the item"}),
		},
		{name: "negative price", token: aliceToken, body: []byte(`{"price":-3}`), wantCode: http.StatusBadRequest},
		{name: "new price", token: aliceToken, body: []byte(`{"price":10}`), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPut
			tt.path = path
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	got, err := env.listingRepo.GetListing(context.Background(), book.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Price)
	assert.Equal(t, "Book", got.Title)
}

func Test_marketApi_images(t *testing.T) {
	env := setup(t)
	alice, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	_, bobToken := env.createUser(t, "Bob", "bob@test.cd")
	book := createListing(t, env, alice.ID, "Book")
	imagesPath := "/api/smart-sell/" + book.ID + "/images"
	png := []byte("\x89PNG\r\n\x1a\nfake")

	t.Run("not the owner", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, imagesPath, bobToken, "images", map[string][]byte{"a.png": png})
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})

	t.Run("no file", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, imagesPath, aliceToken, "images", nil)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"images":"no file provided"}`)}, rec)
	})

	t.Run("file type not allowed", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, imagesPath, aliceToken, "images", map[string][]byte{"a.exe": png})
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"images":"file type not allowed, must be one of: png, jpg, jpeg, gif"}`),
		}, rec)

		entries, err := os.ReadDir(env.conf.Server.UploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	var imgPath string
	t.Run("success", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, imagesPath, aliceToken, "images", map[string][]byte{"my pic.png": png})
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Item market.View `json:"item"`
		}
		unmarshal(t, rec, &resp)
		require.Len(t, resp.Item.Images, 1)
		imgPath = resp.Item.Images[0]
		assert.Equal(t, "/static/uploads", path.Dir(imgPath))
		assert.True(t, len(path.Base(imgPath)) > len("my_pic.png"))

		// served as a static file
		req, rec = newRequest(http.MethodGet, imgPath)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, png, rec.Body.Bytes())
	})

	t.Run("delete removes images", func(t *testing.T) {
		require.NotEmpty(t, imgPath)
		rec := env.serve(httpTest{method: http.MethodDelete, path: "/api/smart-sell/" + book.ID, token: aliceToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		_, err := os.Stat(filepath.Join(env.conf.Server.UploadDir, path.Base(imgPath)))
		assert.True(t, os.IsNotExist(err))

		_, err = env.listingRepo.GetListing(context.Background(), book.ID, alice.ID)
		assert.Equal(t, market.ErrNotFound, err)
	})
}
