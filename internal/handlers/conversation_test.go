package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/mocks"
	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

func setupConversationRouter(handler *ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	})
	r.POST("/conversations/start", handler.Start)
	r.GET("/conversations", handler.List)
	r.DELETE("/conversations/:conversation_id/me", handler.HideForMe)
	return r
}

func TestStartConversationSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	friendsMock := new(mocks.FriendsProviderMock)
	handler := NewConversationHandler(convRepo, friendsMock)
	router := setupConversationRouter(handler)

	friendsMock.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(true, nil).Once()
	convRepo.On("GetOrCreateDirect", mock.Anything, int64(1), int64(2)).Return(models.Conversation{ID: 10}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"friend_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 10, resp["conversation_id"])
	friendsMock.AssertExpectations(t)
	convRepo.AssertExpectations(t)
}

func TestStartConversationWithSelf(t *testing.T) {
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"friend_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartConversationNotFriends(t *testing.T) {
	friendsMock := new(mocks.FriendsProviderMock)
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), friendsMock)
	router := setupConversationRouter(handler)

	friendsMock.On("AreFriends", mock.Anything, int64(1), int64(5)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"friend_id":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	friendsMock.AssertExpectations(t)
}

func TestStartConversationFriendCheckError(t *testing.T) {
	friendsMock := new(mocks.FriendsProviderMock)
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), friendsMock)
	router := setupConversationRouter(handler)

	friendsMock.On("AreFriends", mock.Anything, int64(1), int64(5)).Return(false, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"friend_id":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	friendsMock.AssertExpectations(t)
}

func TestListConversationsSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	peer := int64(2)
	convRepo.On("ListForUser", mock.Anything, int64(1)).
		Return([]models.ConversationSummary{{ConversationID: 3, PeerID: &peer}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestListConversationsRepoError(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	convRepo.On("ListForUser", mock.Anything, int64(1)).
		Return(([]models.ConversationSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestHideConversationSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	convRepo.On("HideForUser", mock.Anything, int64(5), int64(1)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestHideConversationNotMember(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := NewConversationHandler(convRepo, new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	convRepo.On("HideForUser", mock.Anything, int64(5), int64(1)).
		Return(repositories.ErrParticipantNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/5/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestHideConversationInvalidID(t *testing.T) {
	handler := NewConversationHandler(new(mocks.ConversationRepositoryMock), new(mocks.FriendsProviderMock))
	router := setupConversationRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/conversations/abc/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
