package model

import (
	"time"

	"gorm.io/datatypes"
)

// ServerType 节点协议类型
type ServerType string

const (
	ServerTypeVmess       ServerType = "vmess"
	ServerTypeVless       ServerType = "vless"
	ServerTypeTrojan      ServerType = "trojan"
	ServerTypeShadowsocks ServerType = "shadowsocks"
	ServerTypeHysteria    ServerType = "hysteria"
)

var serverTypes = map[string]ServerType{
	string(ServerTypeVmess):       ServerTypeVmess,
	string(ServerTypeVless):       ServerTypeVless,
	string(ServerTypeTrojan):      ServerTypeTrojan,
	string(ServerTypeShadowsocks): ServerTypeShadowsocks,
	string(ServerTypeHysteria):    ServerTypeHysteria,
}

// ParseServerType 未知类型返回 false
func ParseServerType(s string) (ServerType, bool) {
	t, ok := serverTypes[s]
	return t, ok
}

// Server 所有协议共用一张表，按 type 区分
type Server struct {
	ID        int64                     `gorm:"primaryKey" json:"id"`
	Type      ServerType                `gorm:"size:20;not null;index" json:"type"`
	Name      string                    `gorm:"size:100" json:"name"`
	Rate      float64                   `gorm:"not null" json:"rate"` // 流量倍率
	ParentID  *int64                    `json:"parent_id"`
	GroupIDs  datatypes.JSONSlice[int64] `gorm:"type:json" json:"group_ids"`
	Show      bool                      `gorm:"not null" json:"show"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

func (Server) TableName() string {
	return "servers"
}
