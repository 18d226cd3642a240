package exchange

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
	"unsafe"
)

// Memory layout constants.
const (
	// Magic bytes for segment identification
	segmentMagic = "WIFISHM\x00"

	// Current protocol version
	segmentVersion = uint32(1)

	// Segment header size (aligned to 128 bytes)
	segmentHeaderSize = 128

	// Direction sync header size (aligned to 64 bytes)
	directionHeaderSize = 64
)

// Slot phases. The phase word is the futex both sides block on; all
// transitions go through compare-and-swap so at most one process is in
// Writing or Reading per direction at any instant.
const (
	slotIdle uint32 = iota
	slotWriting
	slotWritten
	slotReading
)

// segmentHeader is the fixed 128-byte header at the start of the mapped
// region. Flag words are only touched through atomics.
type segmentHeader struct {
	magic       [8]byte // 0x00: "WIFISHM\0"
	version     uint32  // 0x08: protocol version
	flags       uint32  // 0x0C: reserved
	totalSize   uint64  // 0x10: total segment size
	obsOff      uint64  // 0x18: offset of the Observation direction block
	actOff      uint64  // 0x20: offset of the Action direction block
	creatorPID  uint32  // 0x28: creator process ID
	attacherPID uint32  // 0x2C: attacher process ID
	attached    uint32  // 0x30: attacher mapped flag (0->1)
	finished    uint32  // 0x34: finish flag, set once by the producer
	closed      uint32  // 0x38: closed flag, set by either side on Close
	pad         uint32  // 0x3C: padding
	reserved    [64]byte
}

// directionHeader precedes each record slot. phase is the futex word;
// rounds counts completed write handoffs for diagnostics.
type directionHeader struct {
	phase    uint32
	rounds   uint32
	reserved [56]byte
}

func init() {
	if s := unsafe.Sizeof(segmentHeader{}); s != segmentHeaderSize {
		panic(fmt.Sprintf("segment header size is %d, expected %d",
			s, segmentHeaderSize))
	}
	if s := unsafe.Sizeof(directionHeader{}); s != directionHeaderSize {
		panic(fmt.Sprintf("direction header size is %d, expected %d",
			s, directionHeaderSize))
	}
}

// segmentLayout returns the offsets of the two direction blocks and the
// total segment size. Each block is a direction header followed by one
// 64-byte record slot.
func segmentLayout() (obsOff, actOff, totalSize uint64) {
	obsOff = segmentHeaderSize
	actOff = obsOff + directionHeaderSize + slotSize
	totalSize = actOff + directionHeaderSize + slotSize
	return obsOff, actOff, totalSize
}

// segment is a mapped shared memory segment holding one channel instance.
type segment struct {
	file    *os.File
	mem     []byte
	path    string
	creator bool

	hdr *segmentHeader
	obs *directionView
	act *directionView
}

// directionView exposes one direction block of the segment: the phase word
// plus the record slot behind it.
type directionView struct {
	hdr  *directionHeader
	slot unsafe.Pointer
}

func (v *directionView) phaseAddr() *uint32 {
	return &v.hdr.phase
}

func (v *directionView) loadPhase() uint32 {
	return atomic.LoadUint32(&v.hdr.phase)
}

func (v *directionView) casPhase(from, to uint32) bool {
	return atomic.CompareAndSwapUint32(&v.hdr.phase, from, to)
}

func (v *directionView) bumpRounds() {
	atomic.AddUint32(&v.hdr.rounds, 1)
}

func (v *directionView) roundsCompleted() uint32 {
	return atomic.LoadUint32(&v.hdr.rounds)
}

// segmentPath returns the backing file path for a channel key. /dev/shm is
// preferred so the file never touches a disk; the temp dir is the
// fallback.
func segmentPath(key string) string {
	shmPath := filepath.Join("/dev/shm", "wifisim_shm_"+key)
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return shmPath
	}

	return filepath.Join(os.TempDir(), "wifisim_shm_"+key)
}

// createSegment allocates and initializes the shared region for a channel.
// It fails with ErrChannelCreation if a region with the same key already
// exists.
func createSegment(key string) (*segment, error) {
	path := segmentPath(key)
	obsOff, actOff, totalSize := segmentLayout()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: region %s already exists",
				ErrChannelCreation, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrChannelCreation, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(totalSize)); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: cannot size region: %v",
			ErrChannelCreation, err)
	}

	mem, err := mapFile(file, int(totalSize))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrChannelCreation, err)
	}

	s := newSegmentViews(file, mem, path)
	s.creator = true

	copy(s.hdr.magic[:], segmentMagic)
	atomic.StoreUint32(&s.hdr.version, segmentVersion)
	atomic.StoreUint64(&s.hdr.totalSize, totalSize)
	atomic.StoreUint64(&s.hdr.obsOff, obsOff)
	atomic.StoreUint64(&s.hdr.actOff, actOff)
	atomic.StoreUint32(&s.hdr.creatorPID, uint32(os.Getpid()))
	atomic.StoreUint32(&s.obs.hdr.phase, slotIdle)
	atomic.StoreUint32(&s.act.hdr.phase, slotIdle)

	return s, nil
}

// openSegment attaches to an existing shared region, polling for the
// creator to appear until the attach timeout expires.
func openSegment(key string, timeout time.Duration) (*segment, error) {
	path := segmentPath(key)
	deadline := time.Now().Add(timeout)

	var file *os.File
	for {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err == nil {
			file = f
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrChannelAttach, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf(
				"%w: creator did not appear within %v", ErrChannelAttach,
				timeout)
		}
		time.Sleep(attachPollInterval)
	}

	_, _, totalSize := segmentLayout()

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", ErrChannelAttach, err)
	}
	if uint64(info.Size()) != totalSize {
		file.Close()
		return nil, fmt.Errorf("%w: region is %d bytes, expected %d",
			ErrChannelAttach, info.Size(), totalSize)
	}

	mem, err := mapFile(file, int(totalSize))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %v", ErrChannelAttach, err)
	}

	s := newSegmentViews(file, mem, path)

	if err := s.validateHeader(); err != nil {
		unmapFile(mem)
		file.Close()
		return nil, fmt.Errorf("%w: %v", ErrChannelAttach, err)
	}

	atomic.StoreUint32(&s.hdr.attacherPID, uint32(os.Getpid()))
	atomic.StoreUint32(&s.hdr.attached, 1)

	return s, nil
}

const attachPollInterval = 10 * time.Millisecond

func newSegmentViews(file *os.File, mem []byte, path string) *segment {
	base := unsafe.Pointer(&mem[0])
	obsOff, actOff, _ := segmentLayout()

	return &segment{
		file: file,
		mem:  mem,
		path: path,
		hdr:  (*segmentHeader)(base),
		obs: &directionView{
			hdr: (*directionHeader)(unsafe.Pointer(
				uintptr(base) + uintptr(obsOff))),
			slot: unsafe.Pointer(
				uintptr(base) + uintptr(obsOff) + directionHeaderSize),
		},
		act: &directionView{
			hdr: (*directionHeader)(unsafe.Pointer(
				uintptr(base) + uintptr(actOff))),
			slot: unsafe.Pointer(
				uintptr(base) + uintptr(actOff) + directionHeaderSize),
		},
	}
}

func (s *segment) validateHeader() error {
	if string(s.hdr.magic[:]) != segmentMagic {
		return fmt.Errorf("invalid magic bytes")
	}
	if v := atomic.LoadUint32(&s.hdr.version); v != segmentVersion {
		return fmt.Errorf("unsupported version %d, expected %d",
			v, segmentVersion)
	}

	obsOff, actOff, totalSize := segmentLayout()
	if atomic.LoadUint64(&s.hdr.totalSize) != totalSize ||
		atomic.LoadUint64(&s.hdr.obsOff) != obsOff ||
		atomic.LoadUint64(&s.hdr.actOff) != actOff {
		return fmt.Errorf("layout mismatch")
	}

	return nil
}

func (s *segment) observation() *Observation {
	return (*Observation)(s.obs.slot)
}

func (s *segment) action() *Action {
	return (*Action)(s.act.slot)
}

func (s *segment) setFinished() {
	atomic.StoreUint32(&s.hdr.finished, 1)
}

func (s *segment) finished() bool {
	return atomic.LoadUint32(&s.hdr.finished) != 0
}

func (s *segment) attached() bool {
	return atomic.LoadUint32(&s.hdr.attached) != 0
}

func (s *segment) attacherPID() uint32 {
	return atomic.LoadUint32(&s.hdr.attacherPID)
}

func (s *segment) setClosed() {
	atomic.StoreUint32(&s.hdr.closed, 1)
}

func (s *segment) closed() bool {
	return atomic.LoadUint32(&s.hdr.closed) != 0
}

// close marks the channel closed, wakes any peer blocked on either phase
// word, and releases this side's mapping. Only the creator removes the
// backing file; the attacher merely detaches.
func (s *segment) close() error {
	var firstErr error

	if s.mem != nil {
		s.setClosed()
		futexWake(s.obs.phaseAddr(), 1)
		futexWake(s.act.phaseAddr(), 1)

		if err := unmapFile(s.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.mem = nil
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}

	if s.creator {
		if err := os.Remove(s.path); err != nil &&
			!os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
