package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navsense_config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_LoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# navsense test config
MQTT_BROKER=tcp://localhost:1883
LINK_TRANSPORT=serial
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD=57600
SENSOR_VARIANT=dual_lidar
SOURCE_ID=3
POLL_INTERVAL=50
NEAR_THRESHOLD=120
FAR_THRESHOLD=1400
MOVEMENT_THRESHOLD=2
I2C_ADDR=0x11
TOPIC_READINGS=fleet/nav/readings
WEB_SERVER_PORT=9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.SerialPort != "/dev/ttyUSB0" || cfg.SerialBaud != 57600 {
		t.Fatalf("serial config wrong: %+v", cfg)
	}
	if cfg.SensorVariant != "dual_lidar" || cfg.SourceID != 3 {
		t.Fatalf("driver config wrong: %+v", cfg)
	}
	if cfg.NearThreshold != 120 || cfg.FarThreshold != 1400 || cfg.MovementThreshold != 2 {
		t.Fatalf("thresholds wrong: %+v", cfg)
	}
	if cfg.TopicReadings != "fleet/nav/readings" {
		t.Fatalf("topic override ignored: %q", cfg.TopicReadings)
	}
	// untouched keys keep their defaults
	if cfg.TopicEvents != "navsense/events" || cfg.PollInterval != 50 {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
}

func Test_LoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nBOGUS_KEY=1\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func Test_LoadValidates(t *testing.T) {
	// missing broker
	path := writeConfig(t, "LINK_TRANSPORT=sim\n")
	if _, err := Load(path); err == nil {
		t.Fatal("missing MQTT_BROKER accepted")
	}

	// serial transport without a port
	path = writeConfig(t, "MQTT_BROKER=tcp://x:1883\nLINK_TRANSPORT=serial\n")
	if _, err := Load(path); err == nil {
		t.Fatal("serial transport without SERIAL_PORT accepted")
	}

	// inverted thresholds
	path = writeConfig(t, "MQTT_BROKER=tcp://x:1883\nLINK_TRANSPORT=sim\nNEAR_THRESHOLD=1500\nFAR_THRESHOLD=100\n")
	if _, err := Load(path); err == nil {
		t.Fatal("inverted thresholds accepted")
	}

	// bad variant
	path = writeConfig(t, "MQTT_BROKER=tcp://x:1883\nLINK_TRANSPORT=sim\nSENSOR_VARIANT=sonar\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unknown variant accepted")
	}
}
