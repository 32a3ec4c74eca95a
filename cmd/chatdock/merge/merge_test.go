package mergecmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/floatworksco/chatdock/pkg/chat"
	"github.com/floatworksco/chatdock/pkg/merkle"
	"github.com/floatworksco/chatdock/pkg/storage/sqlite"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "chatdock-merge-test-*")
		Expect(err).NotTo(HaveOccurred())
		srcPath = filepath.Join(tmpDir, "source.sqlite")
		dstPath = filepath.Join(tmpDir, "target.sqlite")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	makeNode := func(turn chat.Turn, parent *merkle.Node) *merkle.Node {
		return merkle.NewNode(merkle.MessageBucket(turn, "test-model"), parent)
	}

	It("merges nodes from source into target", func() {
		// Seed source with two nodes
		src, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		nodeA := makeNode(chat.UserTurn("hello from source"), nil)
		nodeB := makeNode(chat.ModelTurn("hi back"), nodeA)
		_, err = src.Put(ctx, nodeA)
		Expect(err).NotTo(HaveOccurred())
		_, err = src.Put(ctx, nodeB)
		Expect(err).NotTo(HaveOccurred())
		src.Close()

		// Seed target with one different node
		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		nodeC := makeNode(chat.UserTurn("hello from target"), nil)
		_, err = dst.Put(ctx, nodeC)
		Expect(err).NotTo(HaveOccurred())
		dst.Close()

		// Run merge
		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		err = cmd.ExecuteContext(ctx)
		Expect(err).NotTo(HaveOccurred())

		// Verify target has all three nodes
		dst, err = sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		nodes, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(3))
	})

	It("deduplicates when merging the same source twice", func() {
		// Seed source
		src, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		nodeA := makeNode(chat.UserTurn("dedup test"), nil)
		_, err = src.Put(ctx, nodeA)
		Expect(err).NotTo(HaveOccurred())
		src.Close()

		// Create empty target
		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		dst.Close()

		// Merge twice
		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		cmd2 := NewMergeCmd()
		cmd2.SetArgs([]string{"--sqlite", dstPath, srcPath})
		Expect(cmd2.ExecuteContext(ctx)).To(Succeed())

		// Still only one node
		dst, err = sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		nodes, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(1))
	})

	It("merges multiple sources", func() {
		src2Path := filepath.Join(tmpDir, "source2.sqlite")

		src, err := sqlite.NewDriver(ctx, srcPath)
		Expect(err).NotTo(HaveOccurred())
		_, err = src.Put(ctx, makeNode(chat.UserTurn("from source one"), nil))
		Expect(err).NotTo(HaveOccurred())
		src.Close()

		src2, err := sqlite.NewDriver(ctx, src2Path)
		Expect(err).NotTo(HaveOccurred())
		_, err = src2.Put(ctx, makeNode(chat.UserTurn("from source two"), nil))
		Expect(err).NotTo(HaveOccurred())
		src2.Close()

		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, srcPath, src2Path})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		dst, err := sqlite.NewDriver(ctx, dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer dst.Close()
		nodes, err := dst.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})

	It("fails on a missing source database directory", func() {
		cmd := NewMergeCmd()
		cmd.SetArgs([]string{"--sqlite", dstPath, filepath.Join(tmpDir, "no", "such", "dir", "src.sqlite")})
		Expect(cmd.ExecuteContext(ctx)).NotTo(Succeed())
	})
})
