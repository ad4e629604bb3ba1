package handler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/testutil"
)

func serverRouter(ctx *testContext) *gin.Engine {
	h := NewServerHandler(ctx.Traffic)
	router := gin.New()
	router.POST("/server/:type/:id/push", h.Push)
	return router
}

func TestServerHandler_Push(t *testing.T) {
	ctx := setupContext(t)
	server := testutil.TestServer(t, ctx.DB, model.ServerTypeVmess, 2)

	path := fmt.Sprintf("/server/vmess/%d/push", server.ID)
	w := performRequest(serverRouter(ctx), "POST", path, map[string][2]int64{
		"7": {100, 200},
		"3": {1, 2},
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, true, resp.Data)

	job, err := ctx.TrafficQueue.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, server.ID, job.ServerID)
	assert.Equal(t, "vmess", job.ServerType)
	assert.Equal(t, float64(2), job.Rate)
	require.Len(t, job.Deltas, 2)
	assert.Equal(t, int64(3), job.Deltas[0].UserID)
	assert.Equal(t, int64(7), job.Deltas[1].UserID)
	assert.Equal(t, int64(200), job.Deltas[1].D)
}

func TestServerHandler_Push_Rejected(t *testing.T) {
	ctx := setupContext(t)
	server := testutil.TestServer(t, ctx.DB, model.ServerTypeTrojan, 1)

	tests := []struct {
		name string
		path string
		body interface{}
		code int
	}{
		{"invalid type", fmt.Sprintf("/server/socks/%d/push", server.ID), map[string][2]int64{"1": {1, 1}}, response.CodeParamError},
		{"invalid id", "/server/trojan/abc/push", map[string][2]int64{"1": {1, 1}}, response.CodeParamError},
		{"type mismatch", fmt.Sprintf("/server/vmess/%d/push", server.ID), map[string][2]int64{"1": {1, 1}}, response.CodeResourceNotFound},
		{"negative traffic", fmt.Sprintf("/server/trojan/%d/push", server.ID), map[string][2]int64{"1": {-1, 1}}, response.CodeParamError},
		{"invalid uid", fmt.Sprintf("/server/trojan/%d/push", server.ID), map[string][2]int64{"x": {1, 1}}, response.CodeParamError},
		{"malformed body", fmt.Sprintf("/server/trojan/%d/push", server.ID), []int{1, 2}, response.CodeParamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(serverRouter(ctx), "POST", tt.path, tt.body)
			assert.Equal(t, tt.code, parseResponse(t, w).Code)
		})
	}

	length, err := ctx.TrafficQueue.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}
