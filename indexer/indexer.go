package indexer

import (
	"context"
	"errors"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/openfund/rfe-app/types"
)

// ChainIndexer tails BlockResults over the node's RPC and mirrors
// engine events into sqlite for the HTTP query service.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Project{}, &Milestone{}, &EscrowEvent{}, &Proposal{}, &Vote{}, &Stake{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := ChainIndexer{
		logger:        logger.With("module", "indexer"),
		Url:           chainUrl,
		Height:        int64(h.Height + 1),
		db:            db,
		cli:           cli,
		eventHandlers: map[string]eventHandler{},
	}

	c.eventHandlers = map[string]eventHandler{
		types.EventProjectCreatedType:    c.handleEventProjectCreated,
		types.EventMilestoneAddedType:    c.handleEventMilestoneAdded,
		types.EventMilestoneFundedType:   c.handleEventEscrowMoved,
		types.EventMilestoneApprovedType: c.handleEventEscrowMoved,
		types.EventMilestoneRejectedType: c.handleEventEscrowMoved,
		types.EventMilestoneRefundedType: c.handleEventEscrowMoved,
		types.EventProposalCreatedType:   c.handleEventProposalCreated,
		types.EventVoteCastType:          c.handleEventVoteCast,
		types.EventProposalFinalizedType: c.handleEventProposalFinalized,
		types.EventStakeRegisteredType:   c.handleEventStakeRegistered,
	}
	return &c, nil
}

type eventHandler func(ctx context.Context, event abci.Event, height int64)

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) {
	if h, ok := c.eventHandlers[event.Type]; ok {
		h(ctx, event, height)
	}
}

func (c *ChainIndexer) handleEventProjectCreated(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProjectCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	project := Project{
		Id:             ev.Project,
		CreatorIndex:   ev.Creator,
		CreatorAddress: ev.CreatorAddress,
		TotalEscrowed:  0,
		Height:         uint64(height),
	}
	if err := c.db.Save(&project).Error; err != nil {
		c.logger.Error("save project fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventMilestoneAdded(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventMilestoneAdded(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	m := Milestone{
		Project:     ev.Project,
		Milestone:   ev.Milestone,
		Amount:      ev.Amount,
		Description: ev.Description,
		Status:      uint64(types.MilestoneStatusPending),
		Balance:     0,
		Height:      uint64(height),
	}
	if err := c.db.Save(&m).Error; err != nil {
		c.logger.Error("save milestone fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventEscrowMoved(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventEscrowMoved(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	record := EscrowEvent{
		Kind:         event.Type,
		Project:      ev.Project,
		Milestone:    ev.Milestone,
		Amount:       ev.Amount,
		ActorIndex:   ev.Actor,
		ActorAddress: ev.ActorAddress,
		Height:       uint64(height),
	}
	if err := c.db.Create(&record).Error; err != nil {
		c.logger.Error("save escrow event fail", "err", err)
	}

	var m Milestone
	if err := c.db.Where("project = ? AND milestone = ?", ev.Project, ev.Milestone).First(&m).Error; err != nil {
		c.logger.Error("get milestone fail", "err", err)
		return
	}
	m.Balance = ev.Balance
	switch event.Type {
	case types.EventMilestoneApprovedType:
		m.Status = uint64(types.MilestoneStatusApproved)
	case types.EventMilestoneRejectedType:
		m.Status = uint64(types.MilestoneStatusRejected)
	}
	if err := c.db.Save(&m).Error; err != nil {
		c.logger.Error("save milestone fail", "err", err)
	}

	var project Project
	if err := c.db.First(&project, ev.Project).Error; err != nil {
		c.logger.Error("get project fail", "err", err)
		return
	}
	project.TotalEscrowed = ev.TotalEscrowed
	if err := c.db.Save(&project).Error; err != nil {
		c.logger.Error("save project fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalCreated(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	proposal := Proposal{
		Id:             ev.Proposal,
		Project:        ev.Project,
		Milestone:      ev.Milestone,
		ProposalType:   uint64(ev.ProposalType),
		CreatorIndex:   ev.Creator,
		CreatorAddress: ev.CreatorAddress,
		CreateHeight:   uint64(height),
		Deadline:       ev.Deadline,
		Status:         uint64(types.ProposalStatusPending),
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventVoteCast(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	vote := Vote{
		Proposal:     ev.Proposal,
		VoterIndex:   ev.Voter,
		VoterAddress: ev.VoterAddress,
		Choice:       ev.Choice,
		Stake:        ev.Stake,
		Height:       uint64(height),
	}
	if err := c.db.Create(&vote).Error; err != nil {
		c.logger.Error("save vote fail", "err", err)
	}

	var proposal Proposal
	if err := c.db.First(&proposal, ev.Proposal).Error; err != nil {
		c.logger.Error("get proposal fail", "err", err)
		return
	}
	if ev.Choice {
		proposal.YesVotes += ev.Stake
	} else {
		proposal.NoVotes += ev.Stake
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalFinalized(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposalFinalized(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	var proposal Proposal
	if err := c.db.First(&proposal, ev.Proposal).Error; err != nil {
		c.logger.Error("get proposal fail", "err", err)
		return
	}
	proposal.Status = uint64(ev.Status)
	proposal.YesVotes = ev.YesVotes
	proposal.NoVotes = ev.NoVotes
	proposal.FinalHeight = uint64(height)
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventStakeRegistered(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventStakeRegistered(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	stake := Stake{
		Id:      ev.Voter,
		Address: ev.VoterAddress,
		Total:   ev.Total,
		Height:  uint64(height),
	}
	if err := c.db.Save(&stake).Error; err != nil {
		c.logger.Error("save stake fail", "err", err)
	}
}

func (c *ChainIndexer) Start(ctx context.Context) {
	var err error
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.cli == nil {
				c.cli, err = comethttp.New(c.Url, "/websocket")
				if err != nil {
					c.logger.Error("connect fail", "err", err)
					continue
				}
			}
			b, err := c.cli.Status(context.TODO())
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				if !c.cli.IsRunning() {
					c.cli.Stop()
					c.cli, err = comethttp.New(c.Url, "/websocket")
					if err != nil {
						c.logger.Error("reconnect fail", "err", err)
						continue
					}
				}
				continue
			}
			for b.SyncInfo.LatestBlockHeight > c.Height {
				c.logger.Info("indexer syncing", "height", c.Height)
				events, err := c.cli.BlockResults(ctx, &c.Height)
				if err != nil {
					c.logger.Error("get block results fail", "err", err)
					if !c.cli.IsRunning() {
						c.cli.Stop()
						c.cli, err = comethttp.New(c.Url, "/websocket")
						if err != nil {
							c.logger.Error("reconnect fail", "err", err)
						}
					}
					break
				}
				for _, res := range events.TxsResults {
					for _, event := range res.Events {
						c.handleEvent(ctx, event, c.Height)
					}
				}
				if err := c.db.Save(&Height{
					Id:     1,
					Height: uint64(c.Height),
				}).Error; err != nil {
					c.logger.Error("save height fail", "err", err)
					break
				}
				c.Height++
			}
		}
	}
}

func (c *ChainIndexer) getProjects(page int, pageSize int) ([]Project, uint64, error) {
	var projects []Project
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Project{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (c *ChainIndexer) getProjectById(id uint64) (Project, error) {
	var project Project
	err := c.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

func (c *ChainIndexer) getMilestonesByProject(project uint64, page int, pageSize int) ([]Milestone, uint64, error) {
	var milestones []Milestone
	err := c.db.Where("project = ?", project).Order("milestone asc").Offset(page * pageSize).Limit(pageSize).Find(&milestones).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Milestone{}).Where("project = ?", project).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return milestones, total, nil
}

func (c *ChainIndexer) getEscrowEvents(project uint64, milestone uint64, page int, pageSize int) ([]EscrowEvent, uint64, error) {
	var events []EscrowEvent
	q := c.db.Where("project = ?", project)
	if milestone != 0 {
		q = q.Where("milestone = ?", milestone)
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	qc := c.db.Model(&EscrowEvent{}).Where("project = ?", project)
	if milestone != 0 {
		qc = qc.Where("milestone = ?", milestone)
	}
	err = qc.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(id uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", id).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposalsByStatus(status uint64, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("status = ?", status).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("status = ?", status).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint64, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where("proposal = ?", proposal).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getVotesByVoter(voter string, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where("voter_address = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where("voter_address = ?", voter).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getStakes(page int, pageSize int) ([]Stake, uint64, error) {
	var stakes []Stake
	err := c.db.Order("total desc").Offset(page * pageSize).Limit(pageSize).Find(&stakes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Stake{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return stakes, total, nil
}
