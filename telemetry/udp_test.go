package telemetry

import (
	"fmt"
	"net"
	"testing"
	"time"
)

func TestUDPSenderDelivers(t *testing.T) {
	lis, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer lis.Close()
	port := lis.LocalAddr().(*net.UDPAddr).Port

	s, err := NewUDPSender(fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	in := Record{Timestamp: 42, Roll: 0.5, Armed: true}
	if err := s.Send(in); err != nil {
		t.Fatal(err)
	}

	lis.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := lis.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Unmarshal(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if out.Timestamp != 42 || !out.Armed || out.Roll != 0.5 {
		t.Errorf("received %+v", out)
	}
}
