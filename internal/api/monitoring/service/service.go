package monitoringService

import (
	"ProctorGolang/internal/api/monitoring"
	monitoringRepository "ProctorGolang/internal/api/monitoring/repository"
	"ProctorGolang/internal/entity"
	"ProctorGolang/pkg/redis"
	"ProctorGolang/pkg/s3"
	"ProctorGolang/pkg/smtp"
	"ProctorGolang/pkg/utils"
	"context"
	"mime/multipart"

	"github.com/sirupsen/logrus"
)

type MonitoringService interface {
	Escalation() EscalationDomain
	Review() ReviewDomain
	Config() ConfigDomain
	GetRepository() monitoringRepository.Repository
}

type EscalationDomain interface {
	ReportEvent(c context.Context, req monitoring.ReportEventRequest, snapshot *multipart.FileHeader) (monitoring.ReportEventResponse, error)
	HandleEvent(c context.Context, event entity.MonitoringEvent) (monitoring.EscalationOutcome, error)
}

type ReviewDomain interface {
	ListWarnings(c context.Context, filter monitoring.WarningFilter) (monitoring.WarningListResponse, error)
	ResolveWarning(c context.Context, id string, notes string) (entity.Warning, error)
	AttemptSummary(c context.Context, attemptID string) (monitoring.AttemptSummaryResponse, error)
}

type ConfigDomain interface {
	CreateConfig(c context.Context, req monitoring.UpsertConfigRequest) (entity.MonitoringConfig, error)
	GetConfigByExam(c context.Context, examID string) (entity.MonitoringConfig, error)
	ListConfigs(c context.Context) (monitoring.ConfigListResponse, error)
	UpdateConfig(c context.Context, id string, req monitoring.UpsertConfigRequest) (entity.MonitoringConfig, error)
	DeleteConfig(c context.Context, id string) error
}

type monitoringService struct {
	log                  *logrus.Logger
	monitoringRepository monitoringRepository.Repository
	redisServer          redis.IRedis
	smtpMailer           smtp.ItfSmtp
	s3Client             s3.ItfS3
	utils                utils.IUtils

	escalationDomain EscalationDomain
	reviewDomain     ReviewDomain
	configDomain     ConfigDomain
}

func (m *monitoringService) Escalation() EscalationDomain {
	return m.escalationDomain
}

func (m *monitoringService) Review() ReviewDomain {
	return m.reviewDomain
}

func (m *monitoringService) Config() ConfigDomain {
	return m.configDomain
}

func (m *monitoringService) GetRepository() monitoringRepository.Repository {
	return m.monitoringRepository
}

type escalationDomainImpl struct {
	log         *logrus.Logger
	repo        monitoringRepository.Repository
	redisServer redis.IRedis
	smtpMailer  smtp.ItfSmtp
	s3Client    s3.ItfS3
	utils       utils.IUtils
}

type reviewDomainImpl struct {
	log  *logrus.Logger
	repo monitoringRepository.Repository
}

type configDomainImpl struct {
	log         *logrus.Logger
	repo        monitoringRepository.Repository
	redisServer redis.IRedis
	utils       utils.IUtils
}

func New(log *logrus.Logger,
	monitoringRepo monitoringRepository.Repository,
	redisServer redis.IRedis,
	smtpMailer smtp.ItfSmtp,
	s3Client s3.ItfS3,
	utils utils.IUtils,
) MonitoringService {
	return &monitoringService{
		log:                  log,
		monitoringRepository: monitoringRepo,
		redisServer:          redisServer,
		smtpMailer:           smtpMailer,
		s3Client:             s3Client,
		utils:                utils,

		escalationDomain: &escalationDomainImpl{log: log, repo: monitoringRepo, redisServer: redisServer, smtpMailer: smtpMailer, s3Client: s3Client, utils: utils},
		reviewDomain:     &reviewDomainImpl{log: log, repo: monitoringRepo},
		configDomain:     &configDomainImpl{log: log, repo: monitoringRepo, redisServer: redisServer, utils: utils},
	}
}
