package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/response"
	"github.com/qs3c/sub_billing_server/internal/service"
)

type ServerHandler struct {
	trafficService *service.TrafficService
}

func NewServerHandler(trafficService *service.TrafficService) *ServerHandler {
	return &ServerHandler{
		trafficService: trafficService,
	}
}

// Push 节点上报用户流量，请求体为 {"用户ID": [上行, 下行]}
// POST /api/v1/server/:type/:id/push
func (h *ServerHandler) Push(c *gin.Context) {
	serverType, ok := model.ParseServerType(c.Param("type"))
	if !ok {
		response.ParamError(c, "无效的节点类型")
		return
	}

	serverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的节点ID")
		return
	}

	var body map[string][2]int64
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	data := make(map[int64][2]int64, len(body))
	for raw, v := range body {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ParamError(c, "无效的用户ID")
			return
		}
		if v[0] < 0 || v[1] < 0 {
			response.ParamError(c, "流量不能为负数")
			return
		}
		data[uid] = v
	}

	server, err := h.trafficService.GetServer(c.Request.Context(), serverType, serverID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.trafficService.Fetch(c.Request.Context(), server, data); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, true)
}
