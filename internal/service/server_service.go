package service

import (
	"context"
	"fmt"
	"time"

	"panel-backend/internal/amnezia"
	"panel-backend/internal/models"
	"panel-backend/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// ServerAPI is the slice of the provisioning client that covers server
// administration.
type ServerAPI interface {
	GetServer(ctx context.Context) (*amnezia.ServerInfo, error)
	GetBackup(ctx context.Context) (*amnezia.ServerBackup, error)
	ImportBackup(ctx context.Context, raw []byte) error
	Reboot(ctx context.Context) error
}

// ServerService exposes VPN server administration and panel host health.
type ServerService struct {
	vpn   ServerAPI
	audit AuditLog
	log   zerolog.Logger
}

func NewServerService(vpn ServerAPI, audit AuditLog, lg *logger.Logger) *ServerService {
	return &ServerService{
		vpn:   vpn,
		audit: audit,
		log:   lg.GetLogger("server-service"),
	}
}

func (s *ServerService) GetServerInfo(ctx context.Context) (*amnezia.ServerInfo, error) {
	return s.vpn.GetServer(ctx)
}

func (s *ServerService) GetBackup(ctx context.Context) (*amnezia.ServerBackup, error) {
	backup, err := s.vpn.GetBackup(ctx)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, models.LogCategoryServer, models.LogLevelInfo, "Server backup exported")
	return backup, nil
}

// ImportBackup restores server state from a previously exported backup.
// The payload is validated before anything leaves the panel.
func (s *ServerService) ImportBackup(ctx context.Context, raw []byte) error {
	if err := s.vpn.ImportBackup(ctx, raw); err != nil {
		return err
	}
	s.audit.Record(ctx, models.LogCategoryServer, models.LogLevelWarning, "Server backup imported")
	return nil
}

func (s *ServerService) Reboot(ctx context.Context) error {
	if err := s.vpn.Reboot(ctx); err != nil {
		return err
	}
	s.audit.Record(ctx, models.LogCategoryServer, models.LogLevelWarning, "Server reboot requested")
	return nil
}

// SystemStatus is a point-in-time health snapshot of the panel host.
type SystemStatus struct {
	CPUUsage    float64 `json:"cpuUsage"`
	MemoryUsage float64 `json:"memoryUsage"`
	DiskUsage   float64 `json:"diskUsage"`
	Uptime      int64   `json:"uptime"`
}

// GetSystemStatus samples host usage. CPU sampling blocks for one second.
func (s *ServerService) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	// CPU使用率
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, fmt.Errorf("getting CPU usage: %w", err)
	}

	// 内存使用率
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("getting memory info: %w", err)
	}

	// 磁盘使用率
	diskInfo, err := disk.Usage("/")
	if err != nil {
		return nil, fmt.Errorf("getting disk info: %w", err)
	}

	// 运行时间
	hostInfo, err := host.Info()
	if err != nil {
		return nil, fmt.Errorf("getting host info: %w", err)
	}

	return &SystemStatus{
		CPUUsage:    cpuPercent[0],
		MemoryUsage: memInfo.UsedPercent,
		DiskUsage:   diskInfo.UsedPercent,
		Uptime:      int64(hostInfo.Uptime),
	}, nil
}
