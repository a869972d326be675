package model

import (
	"reflect"
	"testing"
)

func TestVisibleConfigs(t *testing.T) {
	mk := func(name string, typ ContainerType) Service {
		return Service{
			AppName: "master",
			Status:  ServiceStatusRunning,
			Config:  ServiceConfig{ServiceName: name, Image: "img", Type: typ},
		}
	}
	services := []Service{
		mk("web", ContainerTypeInstance),
		mk("web-copy", ContainerTypeReplica),
		mk("mailer", ContainerTypeAppCompanion),
		mk("db", ContainerTypeInstance),
		mk("db-proxy", ContainerTypeServiceCompanion),
	}
	got := VisibleConfigs(services)
	var names []string
	for _, c := range got {
		names = append(names, c.ServiceName)
	}
	// Companions drop out; survivors keep their relative order.
	want := []string{"web", "web-copy", "db"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("VisibleConfigs() = %v, want %v", names, want)
	}
	if got := VisibleConfigs(nil); got != nil {
		t.Errorf("VisibleConfigs(nil) = %v, want nil", got)
	}
}
