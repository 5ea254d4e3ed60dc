package indexer

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(ListenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: ListenAddr,
	}
	s.engine.POST("/getProjects", s.handleGetProjects)
	s.engine.POST("/getMilestones", s.handleGetMilestones)
	s.engine.POST("/getEscrowEvents", s.handleGetEscrowEvents)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getStakes", s.handleGetStakes)
	return s
}

func (s *Service) Start() {
	s.engine.Run(s.listenAddr)
}

type GetProjectsReq struct {
	ProjectId uint64 `json:"projectId"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type GetProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    uint64    `json:"total"`
}

func (s *Service) handleGetProjects(c *gin.Context) {
	var response GetProjectsResponse
	response.Projects = make([]Project, 0)
	var requestData GetProjectsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProjectId != 0 {
		project, err := s.indexer.getProjectById(requestData.ProjectId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Projects = append(response.Projects, project)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}
	projects, total, err := s.indexer.getProjects(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Projects = projects
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetMilestonesReq struct {
	ProjectId uint64 `json:"projectId"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type GetMilestonesResponse struct {
	Milestones []Milestone `json:"milestones"`
	Total      uint64      `json:"total"`
}

func (s *Service) handleGetMilestones(c *gin.Context) {
	var response GetMilestonesResponse
	response.Milestones = make([]Milestone, 0)
	var requestData GetMilestonesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProjectId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}
	milestones, total, err := s.indexer.getMilestonesByProject(requestData.ProjectId, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Milestones = milestones
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetEscrowEventsReq struct {
	ProjectId   uint64 `json:"projectId"`
	MilestoneId uint64 `json:"milestoneId"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

type GetEscrowEventsResponse struct {
	Events []EscrowEvent `json:"events"`
	Total  uint64        `json:"total"`
}

func (s *Service) handleGetEscrowEvents(c *gin.Context) {
	var response GetEscrowEventsResponse
	response.Events = make([]EscrowEvent, 0)
	var requestData GetEscrowEventsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProjectId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}
	events, total, err := s.indexer.getEscrowEvents(requestData.ProjectId, requestData.MilestoneId, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Events = events
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetProposalsReq struct {
	ProposalId uint64 `json:"proposalId"`
	Status     uint64 `json:"status"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != 0 {
		proposal, err := s.indexer.getProposalById(requestData.ProposalId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		votes, _, err := s.indexer.getVotesByProposal(requestData.ProposalId, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	var proposals []Proposal
	var total uint64
	var err error
	if requestData.Status != 0 {
		proposals, total, err = s.indexer.getProposalsByStatus(requestData.Status, requestData.Page, requestData.PageSize)
	} else {
		proposals, total, err = s.indexer.getProposals(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, proposal := range proposals {
		votes, _, err := s.indexer.getVotesByProposal(proposal.Id, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: proposal, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	ProposalId   uint64 `json:"proposalId"`
	VoterAddress string `json:"voterAddress"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var response GetVotesResponse
	response.Votes = make([]Vote, 0)
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId != 0 {
		votes, total, err := s.indexer.getVotesByProposal(requestData.ProposalId, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Votes = votes
		response.Total = total
		c.JSON(http.StatusOK, response)
		return
	}
	if requestData.VoterAddress != "" {
		votes, total, err := s.indexer.getVotesByVoter(requestData.VoterAddress, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Votes = votes
		response.Total = total
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voterAddress is required"})
}

type GetStakesReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetStakesResponse struct {
	Stakes []Stake `json:"stakes"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetStakes(c *gin.Context) {
	var response GetStakesResponse
	response.Stakes = make([]Stake, 0)
	var requestData GetStakesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stakes, total, err := s.indexer.getStakes(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Stakes = stakes
	response.Total = total
	c.JSON(http.StatusOK, response)
}
