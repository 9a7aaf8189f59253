package kakao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenInfoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/user/access_token_info", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 12345, "expires_in": 3600, "app_id": 77}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	info, err := client.TokenInfo(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), info.ID)
	assert.Equal(t, 3600, info.ExpiresIn)
	assert.Equal(t, 77, info.AppID)
}

func TestUserMeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/user/me", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 12345,
			"properties": {"nickname": "prop-nick"},
			"kakao_account": {
				"email": "user@example.com",
				"profile": {"nickname": "profile-nick"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	user, err := client.UserMe(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.ID)
	require.NotNil(t, user.Properties)
	assert.Equal(t, "prop-nick", user.Properties.Nickname)
	require.NotNil(t, user.KakaoAccount)
	assert.Equal(t, "user@example.com", user.KakaoAccount.Email)
	require.NotNil(t, user.KakaoAccount.Profile)
	assert.Equal(t, "profile-nick", user.KakaoAccount.Profile.Nickname)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"msg": "this access token does not exist", "code": -401}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	_, err := client.TokenInfo(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestServerErrorCarriesStatusAndCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"msg": "internal error", "code": -1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	_, err := client.UserMe(context.Background(), "token-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, -1, apiErr.Code)
	assert.Equal(t, "internal error", apiErr.Msg)
}

func TestLogoutAndUnlinkPost(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		paths = append(paths, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 12345}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())

	require.NoError(t, client.Logout(context.Background(), "token-1"))
	require.NoError(t, client.Unlink(context.Background(), "token-1"))
	assert.Equal(t, []string{"/v1/user/logout", "/v1/user/unlink"}, paths)
}

func TestNetworkFailureSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, nil)

	_, err := client.TokenInfo(context.Background(), "token-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}
