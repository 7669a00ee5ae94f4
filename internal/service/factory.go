package service

import (
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/store"
)

type Services struct {
	stores    *store.Stores
	publisher changefeed.Publisher
	leadCfg   LeadServiceConfig
}

func NewServices(stores *store.Stores, publisher changefeed.Publisher, leadCfg LeadServiceConfig) *Services {
	return &Services{
		stores:    stores,
		publisher: publisher,
		leadCfg:   leadCfg,
	}
}

func (s *Services) Leads() LeadService {
	return NewLeadService(s.stores.Leads(), s.publisher, s.leadCfg)
}

func (s *Services) Messages() MessageService {
	return NewMessageService(s.stores.Messages(), s.publisher)
}
