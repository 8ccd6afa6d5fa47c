package ssi

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/golang/glog"
	"github.com/google/tink/go/aead"
	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/tink"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/bcrypt"
)

var (
	bucketKeys    = []byte("keys")
	bucketWallets = []byte("wallets")
	bucketDIDs    = []byte("dids")
	bucketInbox   = []byte("inbox")
	bucketIndex   = []byte("msgs")
	bucketCreds   = []byte("creds")

	keysetKey = []byte("aead")

	credentialAD = []byte("credential")
)

// Mailbox is a local Gateway. Wallets, their DIDs, undelivered messages and
// materialized credentials live in one bbolt file. Queued messages and
// credential blobs are sealed with the mailbox's AEAD keyset.
//
// The keyset is stored in cleartext next to the data, which is fine for
// development and tests only.
type Mailbox struct {
	lk   sync.RWMutex // guards db, held over every transaction
	db   *bolt.DB
	aead tink.AEAD
	cost int
}

var _ Gateway = (*Mailbox)(nil)

type index struct {
	Wallet string
	To     string
	Seq    uint64
}

// OpenMailbox opens or creates the mailbox file.
func OpenMailbox(filename string) (m *Mailbox, err error) {
	defer err2.Handle(&err, "open mailbox %s", filename)

	glog.V(1).Infoln("open mailbox:", filename)
	bdb := try.To1(bolt.Open(filename, 0600, &bolt.Options{Timeout: time.Second}))
	m = &Mailbox{db: bdb, cost: bcrypt.DefaultCost}
	defer func() {
		if err != nil {
			_ = bdb.Close()
		}
	}()

	var handle *keyset.Handle
	try.To(bdb.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err, "init buckets")

		for _, b := range [][]byte{bucketKeys, bucketWallets, bucketDIDs,
			bucketInbox, bucketIndex, bucketCreds} {
			try.To1(tx.CreateBucketIfNotExists(b))
		}
		keys := tx.Bucket(bucketKeys)
		if d := keys.Get(keysetKey); d != nil {
			r := keyset.NewBinaryReader(bytes.NewReader(d))
			handle = try.To1(insecurecleartextkeyset.Read(r))
			return nil
		}
		handle = try.To1(keyset.NewHandle(aead.AES256GCMKeyTemplate()))
		buf := new(bytes.Buffer)
		try.To(insecurecleartextkeyset.Write(handle, keyset.NewBinaryWriter(buf)))
		return keys.Put(keysetKey, buf.Bytes())
	}))
	m.aead = try.To1(aead.New(handle))
	return m, nil
}

// SetCost sets the bcrypt cost of the new wallet passphrases.
func (m *Mailbox) SetCost(cost int) {
	m.cost = cost
}

// Close closes the mailbox. All the calls after it return
// ErrWalletUnavailable.
func (m *Mailbox) Close() error {
	m.lk.Lock()
	defer m.lk.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func (m *Mailbox) update(ctx context.Context, f func(tx *bolt.Tx) error) error {
	m.lk.RLock()
	defer m.lk.RUnlock()

	if err := m.ready(ctx); err != nil {
		return err
	}
	return m.db.Update(f)
}

func (m *Mailbox) view(ctx context.Context, f func(tx *bolt.Tx) error) error {
	m.lk.RLock()
	defer m.lk.RUnlock()

	if err := m.ready(ctx); err != nil {
		return err
	}
	return m.db.View(f)
}

// ready must be called with lk held.
func (m *Mailbox) ready(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m.db == nil {
		return fmt.Errorf("mailbox closed: %w", ErrWalletUnavailable)
	}
	return nil
}

func walletExists(tx *bolt.Tx, wallet string) error {
	if tx.Bucket(bucketWallets).Get([]byte(wallet)) == nil {
		return fmt.Errorf("wallet %s: %w", wallet, ErrWalletUnavailable)
	}
	return nil
}

func (m *Mailbox) CreateWallet(name, passphrase string) (err error) {
	defer err2.Handle(&err, "create wallet %s", name)

	hash := try.To1(bcrypt.GenerateFromPassword([]byte(passphrase), m.cost))
	return m.update(context.Background(), func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketWallets)
		if b.Get([]byte(name)) != nil {
			return fmt.Errorf("wallet already exists")
		}
		return b.Put([]byte(name), hash)
	})
}

// DeleteWallet deletes the wallet with its DIDs, undelivered messages and
// credentials.
func (m *Mailbox) DeleteWallet(name, passphrase string) (status int) {
	defer err2.Catch(err2.Err(func(err error) {
		glog.Errorln("delete wallet:", err)
		status = DeleteUnavailable
	}))

	try.To(m.update(context.Background(), func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		wallets := tx.Bucket(bucketWallets)
		hash := wallets.Get([]byte(name))
		if hash == nil {
			status = DeleteUnknownWallet
			return nil
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(passphrase)) != nil {
			status = DeleteBadPassphrase
			return nil
		}
		try.To(deleteWalletData(tx, name))
		try.To(wallets.Delete([]byte(name)))
		status = DeleteOK
		return nil
	}))
	return status
}

func deleteWalletData(tx *bolt.Tx, name string) (err error) {
	defer err2.Handle(&err)

	var dids [][]byte
	try.To(tx.Bucket(bucketDIDs).ForEach(func(k, v []byte) error {
		if string(v) == name {
			dids = append(dids, append([]byte(nil), k...))
		}
		return nil
	}))
	inbox := tx.Bucket(bucketInbox)
	for _, did := range dids {
		try.To(tx.Bucket(bucketDIDs).Delete(did))
		if inbox.Bucket(did) != nil {
			try.To(inbox.DeleteBucket(did))
		}
	}

	idx := tx.Bucket(bucketIndex)
	var msgs [][]byte
	try.To(idx.ForEach(func(k, v []byte) error {
		var i index
		dto.FromGOB(v, &i)
		if i.Wallet == name {
			msgs = append(msgs, append([]byte(nil), k...))
		}
		return nil
	}))
	for _, k := range msgs {
		try.To(idx.Delete(k))
	}

	creds := tx.Bucket(bucketCreds)
	if creds.Bucket([]byte(name)) != nil {
		try.To(creds.DeleteBucket([]byte(name)))
	}
	return nil
}

func (m *Mailbox) NewDID(ctx context.Context, wallet string) (did string, err error) {
	defer err2.Handle(&err, "new DID")

	did = try.To1(utils.NewDID())
	try.To(m.update(ctx, func(tx *bolt.Tx) error {
		if err := walletExists(tx, wallet); err != nil {
			return err
		}
		return tx.Bucket(bucketDIDs).Put([]byte(did), []byte(wallet))
	}))
	return did, nil
}

// SendMessage seals the message to the recipient DID of the handle and queues
// it to the recipient's inbox.
func (m *Mailbox) SendMessage(ctx context.Context, wallet string, h Handle, msg *Message) (id string, err error) {
	defer err2.Handle(&err, "send %s", msg.Type)

	if msg.ID == "" {
		msg.ID = utils.UUID()
	}
	msg.From = h.MyDID
	msg.To = h.TheirDID
	msg.Timestamp = time.Now().UnixNano()

	try.To(m.update(ctx, func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		try.To(walletExists(tx, wallet))
		dids := tx.Bucket(bucketDIDs)
		if string(dids.Get([]byte(h.MyDID))) != wallet {
			return fmt.Errorf("DID %s not in wallet %s: %w",
				h.MyDID, wallet, ErrEncryptionFailure)
		}
		recipient := dids.Get([]byte(h.TheirDID))
		if h.TheirDID == "" || recipient == nil {
			return fmt.Errorf("unknown recipient %q: %w",
				h.TheirDID, ErrEncryptionFailure)
		}
		sealed, err := m.aead.Encrypt(dto.ToGOB(msg), []byte(h.TheirDID))
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrEncryptionFailure)
		}

		inbox := try.To1(tx.Bucket(bucketInbox).CreateBucketIfNotExists([]byte(h.TheirDID)))
		seq := try.To1(inbox.NextSequence())
		try.To(inbox.Put(itob(seq), sealed))
		i := index{Wallet: string(recipient), To: h.TheirDID, Seq: seq}
		return tx.Bucket(bucketIndex).Put([]byte(msg.ID), dto.ToGOB(&i))
	}))
	glog.V(5).Infof("%s -> %s: %s (%s)", h.MyDID, h.TheirDID, msg.Type, msg.ID)
	return msg.ID, nil
}

// FetchNewMessages returns the unacknowledged messages sent to our DID of the
// handle in delivery order. When their DID is known, only the messages from
// it are returned.
func (m *Mailbox) FetchNewMessages(ctx context.Context, wallet string, h Handle) (msgs []*Message, err error) {
	defer err2.Handle(&err, "fetch messages")

	try.To(m.view(ctx, func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		try.To(walletExists(tx, wallet))
		if string(tx.Bucket(bucketDIDs).Get([]byte(h.MyDID))) != wallet {
			return fmt.Errorf("DID %s not in wallet %s: %w",
				h.MyDID, wallet, ErrWalletUnavailable)
		}
		inbox := tx.Bucket(bucketInbox).Bucket([]byte(h.MyDID))
		if inbox == nil {
			return nil
		}
		return inbox.ForEach(func(_, v []byte) (err error) {
			defer err2.Handle(&err)

			pt := try.To1(m.aead.Decrypt(v, []byte(h.MyDID)))
			msg := &Message{}
			dto.FromGOB(pt, msg)
			if h.TheirDID == "" || msg.From == h.TheirDID {
				msgs = append(msgs, msg)
			}
			return nil
		})
	}))
	return msgs, nil
}

func (m *Mailbox) AcknowledgeMessage(ctx context.Context, wallet, msgID string) (err error) {
	defer err2.Handle(&err, "ack %s", msgID)

	return m.update(ctx, func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		try.To(walletExists(tx, wallet))
		idx := tx.Bucket(bucketIndex)
		d := idx.Get([]byte(msgID))
		if d == nil {
			glog.V(3).Infoln("ack of unknown message:", msgID)
			return nil
		}
		var i index
		dto.FromGOB(d, &i)
		if i.Wallet != wallet {
			return fmt.Errorf("message isn't for wallet %s", wallet)
		}
		if inbox := tx.Bucket(bucketInbox).Bucket([]byte(i.To)); inbox != nil {
			try.To(inbox.Delete(itob(i.Seq)))
		}
		return idx.Delete([]byte(msgID))
	})
}

// IssueCredential builds the sealed credential blob for the holder. Only this
// mailbox can open it.
func (m *Mailbox) IssueCredential(ctx context.Context, wallet, credDefID string, attrs map[string]string) (blob []byte, err error) {
	defer err2.Handle(&err, "issue credential")

	try.To(m.view(ctx, func(tx *bolt.Tx) error {
		return walletExists(tx, wallet)
	}))
	c := Credential{
		ID:         utils.UUID(),
		CredDefID:  credDefID,
		Issuer:     wallet,
		Attributes: attrs,
	}
	return m.aead.Encrypt(try.To1(json.Marshal(c)), credentialAD)
}

// MaterializeCredential stores the credential of the blob to the wallet. A
// credential which is already stored isn't stored twice.
func (m *Mailbox) MaterializeCredential(ctx context.Context, wallet string, blob []byte) (err error) {
	defer err2.Handle(&err, "materialize credential")

	var c Credential
	try.To(json.Unmarshal(try.To1(m.aead.Decrypt(blob, credentialAD)), &c))

	return m.update(ctx, func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		try.To(walletExists(tx, wallet))
		b := try.To1(tx.Bucket(bucketCreds).CreateBucketIfNotExists([]byte(wallet)))
		if b.Get([]byte(c.ID)) != nil {
			glog.Warningln("credential already materialized:", c.ID)
			return nil
		}
		return b.Put([]byte(c.ID), dto.ToGOB(&c))
	})
}

func (m *Mailbox) Credentials(ctx context.Context, wallet string) (cs []Credential, err error) {
	defer err2.Handle(&err, "credentials")

	try.To(m.view(ctx, func(tx *bolt.Tx) error {
		if err := walletExists(tx, wallet); err != nil {
			return err
		}
		b := tx.Bucket(bucketCreds).Bucket([]byte(wallet))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var c Credential
			dto.FromGOB(v, &c)
			cs = append(cs, c)
			return nil
		})
	}))
	return cs, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// IsTransient tells if the error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrWalletUnavailable)
}
