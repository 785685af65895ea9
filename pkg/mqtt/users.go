package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// UserTopic is the request topic answered by ServeUsers.
const UserTopic = "user"

// ErrUserNotFound is reported to requesters asking for an unknown id.
var ErrUserNotFound = errors.New("user not found")

// UserReader reads records without creating them.
type UserReader interface {
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
}

// UserLookup answers {"id": "..."} requests with the stored record.
func UserLookup(users UserReader) RequestHandler {
	return func(payload map[string]interface{}) (interface{}, error) {
		id, _ := payload["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("payload.id must be a non-empty string")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		record, err := users.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, ErrUserNotFound
		}
		return record, nil
	}
}

// ServeUsers answers pancymod/request/user lookups.
func (mc *MqttCommunicator) ServeUsers(users UserReader) error {
	return mc.On(UserTopic, UserLookup(users))
}
