package config

import (
	"os"

	"github.com/spf13/cast"
)

func InternalEndpointsEnabled() bool {
	if v := os.Getenv("INFOSHARE_ENABLE_INTERNAL_ENDPOINTS"); v != "" {
		return cast.ToBool(v)
	}
	if AppConfig == nil {
		Load()
	}
	return AppConfig.Server.EnableInternalEndpoints
}

func MaxGroupNameLength() int {
	if v := os.Getenv("INFOSHARE_MAX_GROUP_NAME_LENGTH"); v != "" {
		return cast.ToInt(v)
	}
	if AppConfig == nil {
		Load()
	}
	return AppConfig.Sharing.MaxGroupNameLength
}

func DefaultMemberAccessLevel() string {
	if v := os.Getenv("INFOSHARE_DEFAULT_MEMBER_ACCESS_LEVEL"); v != "" {
		return v
	}
	if AppConfig == nil {
		Load()
	}
	return AppConfig.Sharing.DefaultMemberAccessLevel
}
