package middlewares

import (
	"facegate.io/application/interfaces"
	"facegate.io/application/services/audit"
	"facegate.io/entities"
	iptypes "facegate.io/infrastructure/ipresolver/types"
	"facegate.io/infrastructure/logger"
	"facegate.io/infrastructure/useragent"
)

const maxUserAgentLength = 512

// ClientInfoMiddleware records who is calling so audit events can carry it.
// A failed geo lookup is logged and the request goes on without a location.
func ClientInfoMiddleware(ctx *interfaces.ApplicationContext[any], resolver iptypes.IPResolver, clientIP string) (*interfaces.ApplicationContext[any], bool) {
	client := &entities.ClientInfo{IPAddress: clientIP}
	if agent := ctx.GetHeader("User-Agent"); agent != nil {
		client.UserAgent = *agent
		if len(client.UserAgent) > maxUserAgentLength {
			client.UserAgent = client.UserAgent[:maxUserAgentLength]
		}
		client.Device = useragent.ParseUserAgent(*agent).Describe()
	}
	if resolver != nil {
		result, err := resolver.LookUp(clientIP)
		if err != nil {
			logger.Warning("error looking up ip", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			}, logger.LoggerOptions{
				Key:  "ip",
				Data: clientIP,
			})
		} else {
			client.Location = result.Location()
		}
	}
	ctx.Client = client
	ctx.Ctx.Request = ctx.Ctx.Request.WithContext(audit.WithClient(ctx.Ctx.Request.Context(), client))
	return ctx, true
}
