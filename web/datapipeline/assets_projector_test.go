package datapipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vigilo-project/vigilo/agent/readings/mocks"

	"github.com/stretchr/testify/suite"
	_ "github.com/vigilo-project/vigilo/test"
	"github.com/vigilo-project/vigilo/test/helpers"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/gorm"
)

type AssetsProjectorTestSuite struct {
	suite.Suite
	db *gorm.DB
	tx *gorm.DB
}

func TestAssetsProjectorTestSuite(t *testing.T) {
	suite.Run(t, new(AssetsProjectorTestSuite))
}

func (suite *AssetsProjectorTestSuite) SetupSuite() {
	suite.db = helpers.SetupTestDatabase(suite.T())

	suite.db.AutoMigrate(&Checkpoint{}, &models.Asset{})
}

func (suite *AssetsProjectorTestSuite) TearDownSuite() {
	suite.db.Migrator().DropTable(Checkpoint{}, models.Asset{})
}

func (suite *AssetsProjectorTestSuite) SetupTest() {
	suite.tx = suite.db.Begin()
}

func (suite *AssetsProjectorTestSuite) TearDownTest() {
	suite.tx.Rollback()
}

// Test_HostCollectHandler tests that discovered host facts are projected into the assets read model
func (s *AssetsProjectorTestSuite) Test_HostCollectHandler() {
	hostMock := mocks.NewHostReadingMock()

	requestBody, _ := json.Marshal(hostMock)

	assetsProjector_HostCollectHandler(&CollectEvent{
		ID:          1,
		AgentID:     "machine-1",
		CollectType: HostCollect,
		Payload:     requestBody,
	}, s.tx)

	var projectedAsset models.Asset
	s.tx.First(&projectedAsset)

	s.Equal("machine-1", projectedAsset.ID)
	s.Equal(hostMock.Hostname, projectedAsset.Hostname)
	s.Equal(hostMock.InstanceName, projectedAsset.InstanceName)
	s.ElementsMatch(hostMock.IPAddresses, projectedAsset.IPAddresses)
	s.Equal(hostMock.CPUModel, projectedAsset.CPUModel)
	s.Equal(hostMock.CPUCount, projectedAsset.CPUCount)
	s.Equal(hostMock.TotalMemoryMB, projectedAsset.TotalMemoryMB)
	s.Equal(hostMock.TotalStorageGB, projectedAsset.TotalStorageGB)
	s.Equal(hostMock.OSName, projectedAsset.OSName)
	s.Equal(hostMock.OSVersion, projectedAsset.OSVersion)
	s.Equal(hostMock.AgentVersion, projectedAsset.AgentVersion)
	s.Equal(models.AssetStatusActive, projectedAsset.Status)
	s.False(projectedAsset.FirstSeen.IsZero())
	s.False(projectedAsset.LastSeen.IsZero())
}

// Test_HostCollectHandler_UpdatesExisting tests that re-registrations update in place and keep first_seen
func (s *AssetsProjectorTestSuite) Test_HostCollectHandler_UpdatesExisting() {
	hostMock := mocks.NewHostReadingMock()

	requestBody, _ := json.Marshal(hostMock)
	assetsProjector_HostCollectHandler(&CollectEvent{
		ID:          1,
		AgentID:     "machine-1",
		CollectType: HostCollect,
		Payload:     requestBody,
	}, s.tx)

	var initialAsset models.Asset
	s.tx.First(&initialAsset)

	hostMock.Hostname = "renamed"
	requestBody, _ = json.Marshal(hostMock)
	assetsProjector_HostCollectHandler(&CollectEvent{
		ID:          2,
		AgentID:     "machine-1",
		CollectType: HostCollect,
		Payload:     requestBody,
	}, s.tx)

	var count int64
	s.tx.Model(&models.Asset{}).Count(&count)
	s.Equal(int64(1), count)

	var updatedAsset models.Asset
	s.tx.First(&updatedAsset)

	s.Equal("renamed", updatedAsset.Hostname)
	s.Equal(initialAsset.FirstSeen, updatedAsset.FirstSeen)
}

// Test_TelemetryCollectHandler tests that a telemetry event refreshes liveness without touching facts
func (s *AssetsProjectorTestSuite) Test_TelemetryCollectHandler() {
	hostMock := mocks.NewHostReadingMock()

	requestBody, _ := json.Marshal(hostMock)
	assetsProjector_HostCollectHandler(&CollectEvent{
		ID:          1,
		AgentID:     "machine-1",
		CollectType: HostCollect,
		Payload:     requestBody,
	}, s.tx)

	staleSince := time.Now().Add(-48 * time.Hour)
	s.tx.Model(&models.Asset{}).
		Where("id = ?", "machine-1").
		Updates(map[string]interface{}{
			"status":    models.AssetStatusStale,
			"last_seen": staleSince,
		})

	assetsProjector_TelemetryCollectHandler(&CollectEvent{
		ID:          2,
		AgentID:     "machine-1",
		CollectType: TelemetryCollect,
	}, s.tx)

	var refreshedAsset models.Asset
	s.tx.First(&refreshedAsset)

	s.Equal(models.AssetStatusActive, refreshedAsset.Status)
	s.True(refreshedAsset.LastSeen.After(staleSince))
	s.Equal(hostMock.Hostname, refreshedAsset.Hostname)
}

// Test_TelemetryCollectHandler_CreatesSkeleton tests that telemetry from a never-registered agent creates a bare asset
func (s *AssetsProjectorTestSuite) Test_TelemetryCollectHandler_CreatesSkeleton() {
	assetsProjector_TelemetryCollectHandler(&CollectEvent{
		ID:          1,
		AgentID:     "machine-unknown",
		CollectType: TelemetryCollect,
	}, s.tx)

	var projectedAsset models.Asset
	s.tx.First(&projectedAsset)

	s.Equal("machine-unknown", projectedAsset.ID)
	s.Equal("", projectedAsset.Hostname)
	s.Equal(models.AssetStatusActive, projectedAsset.Status)
}
