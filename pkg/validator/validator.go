package validator

import (
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateCreateChannel(participantIDs []int64, roomType string) ValidationErrors {
	errs := make(ValidationErrors)

	if len(participantIDs) == 0 {
		errs.Add("participant_ids", "At least one participant is required")
	}
	for _, id := range participantIDs {
		if id <= 0 {
			errs.Add("participant_ids", "Participant ids must be positive")
			break
		}
	}

	if roomType != "" && roomType != "PERSONAL" && roomType != "GROUP" {
		errs.Add("room_type", "Room type must be PERSONAL or GROUP")
	}

	return errs
}

func ValidateSendMessage(channelID string, participantIDs []int64, body string) ValidationErrors {
	errs := make(ValidationErrors)

	if channelID == "" && len(participantIDs) == 0 {
		errs.Add("channel_id", "Either a channel id or participant ids are required")
	}

	if strings.TrimSpace(body) == "" {
		errs.Add("body", "Message body is required")
	}

	return errs
}

func ValidateAddMembers(userIDs []int64) ValidationErrors {
	errs := make(ValidationErrors)

	if len(userIDs) == 0 {
		errs.Add("user_ids", "At least one user id is required")
	}
	for _, id := range userIDs {
		if id <= 0 {
			errs.Add("user_ids", "User ids must be positive")
			break
		}
	}

	return errs
}
