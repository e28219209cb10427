package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"

	"github.com/dkosir/partnerhub/internal/domain"
	"github.com/dkosir/partnerhub/internal/provider"
	"github.com/dkosir/partnerhub/internal/repository"
)

// SearchService answers "find channels involving people matching X" by
// cross-referencing the local user directory with the provider's member
// search.
type SearchService struct {
	users    repository.UserRepository
	provider provider.Client
}

func NewSearchService(users repository.UserRepository, client provider.Client) *SearchService {
	return &SearchService{users: users, provider: client}
}

// Search tokenizes term on whitespace and matches users where every token is
// a case-insensitive substring of the first or last name. Each matched user's
// channels are fetched from the provider; a channel is only included when the
// requester is verified as a current member, and results are deduplicated by
// channel id.
func (s *SearchService) Search(ctx context.Context, term string, requesterID int64) ([]provider.Channel, error) {
	tokens := strings.Fields(term)
	if len(tokens) == 0 {
		return nil, nil
	}

	matched, err := s.users.SearchByName(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("matching users: %w", err)
	}

	requesterKey := domain.ChannelIdentity(requesterID)
	seen := make(map[string]struct{})
	var results []provider.Channel

	for _, u := range matched {
		channels, err := s.provider.SearchChannelsByMember(ctx, domain.ChannelIdentity(u.ID))
		if err != nil {
			return nil, fmt.Errorf("searching channels for user %d: %w", u.ID, err)
		}

		for _, ch := range channels {
			if _, ok := seen[ch.ID]; ok {
				continue
			}
			seen[ch.ID] = struct{}{}

			members, err := s.provider.ListMemberships(ctx, ch.ID)
			if err != nil {
				// Unverifiable membership means the channel stays out.
				log.Printf("search: listing members of channel %s: %v", ch.ID, err)
				continue
			}
			if !lo.Contains(members, requesterKey) {
				continue
			}

			ch.Name = ch.Metadata.Encode()
			results = append(results, ch)
		}
	}

	return results, nil
}
