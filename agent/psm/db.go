package psm

import (
	"bytes"
	"errors"
	"sort"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketIdentity     = []byte("identity")
	bucketConnection   = []byte("connection")
	bucketConversation = []byte("conversation")
	bucketHandled      = []byte("handled")
	bucketRetained     = []byte("retained")

	buckets = [][]byte{
		bucketIdentity,
		bucketConnection,
		bucketConversation,
		bucketHandled,
		bucketRetained,
	}
)

// ErrNotFound is returned when the record doesn't exist in the store.
var ErrNotFound = errors.New("record not found")

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store is closed")

// DB is the durable store of identities, connections, conversations and the
// inbound dispatcher's bookkeeping. Every record is keyed by its owning
// wallet.
type DB struct {
	db *bolt.DB
}

// Open opens the database by name of the file and creates the buckets if
// they don't exist yet.
func Open(filename string) (d *DB, err error) {
	defer err2.Handle(&err, "open psm db %s", filename)

	glog.V(1).Infoln("open psm db:", filename)
	bdb := try.To1(bolt.Open(filename, 0600, nil))

	err = bdb.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err, "create buckets")

		for _, b := range buckets {
			try.To1(tx.CreateBucketIfNotExists(b))
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{db: bdb}, nil
}

// Close closes the database. The DB cannot be used after that.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

func (d *DB) put(bucket []byte, key, value []byte) (err error) {
	if d.db == nil {
		return ErrClosed
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, value)
	})
}

// get executes a read transaction by a key and a bucket. Instead of returning
// the data, it uses lambda for the result transport to prevent cloning the byte
// slice.
func (d *DB) get(bucket []byte, key []byte, use func(d []byte)) (err error) {
	if d.db == nil {
		return ErrClosed
	}
	return d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v == nil {
			return ErrNotFound
		}
		use(v)
		return nil
	})
}

func (d *DB) rm(bucket []byte, key []byte) (err error) {
	if d.db == nil {
		return ErrClosed
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}

// forPrefix calls use for every value which key starts with the prefix.
func (d *DB) forPrefix(bucket []byte, prefix []byte, use func(k, v []byte)) (err error) {
	if d.db == nil {
		return ErrClosed
	}
	return d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			use(k, v)
		}
		return nil
	})
}

// rmPrefix deletes every key starting with the prefix.
func (d *DB) rmPrefix(bucket []byte, prefix []byte) (err error) {
	if d.db == nil {
		return ErrClosed
	}
	return d.db.Update(func(tx *bolt.Tx) (err error) {
		defer err2.Handle(&err)

		b := tx.Bucket(bucket)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			try.To(b.Delete(k))
		}
		return nil
	})
}

func walletPrefix(wallet string) ([]byte, error) {
	if err := ValidWallet(wallet); err != nil {
		return nil, err
	}
	return []byte(wallet + keySeparator), nil
}

// forWallet calls fn for every record of the wallet in the bucket.
func (d *DB) forWallet(bucket []byte, wallet string, fn func(k, v []byte)) error {
	prefix, err := walletPrefix(wallet)
	if err != nil {
		return err
	}
	return d.forPrefix(bucket, prefix, fn)
}

func (d *DB) putRecord(bucket []byte, k StateKey, value []byte) error {
	if err := ValidWallet(k.Wallet); err != nil {
		return err
	}
	return d.put(bucket, k.Data(), value)
}

func (d *DB) AddIdentity(i *Identity) error {
	return d.put(bucketIdentity, []byte(i.Name), i.Data())
}

func (d *DB) GetIdentity(name string) (i *Identity, err error) {
	err = d.get(bucketIdentity, []byte(name), func(v []byte) {
		i = NewIdentity(v)
	})
	return i, err
}

func (d *DB) RmIdentity(name string) error {
	return d.rm(bucketIdentity, []byte(name))
}

func (d *DB) AddConnection(c *Connection) error {
	return d.putRecord(bucketConnection, c.StateKey, c.Data())
}

func (d *DB) GetConnection(k StateKey) (c *Connection, err error) {
	err = d.get(bucketConnection, k.Data(), func(v []byte) {
		c = NewConnection(v)
	})
	return c, err
}

func (d *DB) RmConnection(k StateKey) error {
	return d.rm(bucketConnection, k.Data())
}

// Connections returns all of the wallet's connections in creation order.
func (d *DB) Connections(wallet string) (cs []*Connection, err error) {
	err = d.forWallet(bucketConnection, wallet, func(_, v []byte) {
		cs = append(cs, NewConnection(v))
	})
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Created < cs[j].Created })
	return cs, err
}

// AllConnections returns connections of every wallet.
func (d *DB) AllConnections() (cs []*Connection, err error) {
	err = d.forPrefix(bucketConnection, nil, func(_, v []byte) {
		cs = append(cs, NewConnection(v))
	})
	return cs, err
}

// FindConnectionByInvitation finds the wallet's connection which was created
// by the invitation.
func (d *DB) FindConnectionByInvitation(wallet, invitationID string) (c *Connection, err error) {
	cs, err := d.Connections(wallet)
	if err != nil {
		return nil, err
	}
	for _, conn := range cs {
		if conn.InvitationID == invitationID {
			return conn, nil
		}
	}
	return nil, ErrNotFound
}

func (d *DB) AddConversation(c *Conversation) error {
	return d.putRecord(bucketConversation, c.StateKey, c.Data())
}

func (d *DB) GetConversation(k StateKey) (c *Conversation, err error) {
	err = d.get(bucketConversation, k.Data(), func(v []byte) {
		c = NewConversation(v)
	})
	return c, err
}

func (d *DB) RmConversation(k StateKey) error {
	return d.rm(bucketConversation, k.Data())
}

// Conversations returns all of the wallet's conversations in creation order.
func (d *DB) Conversations(wallet string) (cs []*Conversation, err error) {
	err = d.forWallet(bucketConversation, wallet, func(_, v []byte) {
		cs = append(cs, NewConversation(v))
	})
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Created < cs[j].Created })
	return cs, err
}

// FindConversationByThread finds the conversation of the connection which
// belongs to the thread. Records of unclassified messages are never found.
func (d *DB) FindConversationByThread(wallet, connID, threadID string) (c *Conversation, err error) {
	if threadID == "" {
		return nil, ErrNotFound
	}
	err = d.forWallet(bucketConversation, wallet, func(_, v []byte) {
		if c != nil {
			return
		}
		conv := NewConversation(v)
		if conv.Type == Unknown {
			return
		}
		if conv.ConnectionID == connID && conv.ThreadID == threadID {
			c = conv
		}
	})
	if err == nil && c == nil {
		err = ErrNotFound
	}
	return c, err
}

func handledKey(wallet, connID, msgID string) []byte {
	return []byte(wallet + keySeparator + connID + keySeparator + msgID)
}

// MarkHandled saves the message ID as processed for the connection.
func (d *DB) MarkHandled(wallet, connID, msgID string) error {
	if err := ValidWallet(wallet); err != nil {
		return err
	}
	return d.put(bucketHandled, handledKey(wallet, connID, msgID), []byte{1})
}

// IsHandled tells if the message is already processed for the connection.
func (d *DB) IsHandled(wallet, connID, msgID string) (yes bool, err error) {
	err = d.get(bucketHandled, handledKey(wallet, connID, msgID), func([]byte) {
		yes = true
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return yes, err
}

// RmHandled forgets the processed message IDs of the connection.
func (d *DB) RmHandled(wallet, connID string) error {
	return d.rmPrefix(bucketHandled, []byte(wallet+keySeparator+connID+keySeparator))
}

func (d *DB) AddRetained(r *Retained) error {
	return d.putRecord(bucketRetained, r.StateKey, r.Data())
}

// RetainedMessages returns the wallet's unclassified inbound messages.
func (d *DB) RetainedMessages(wallet string) (rs []*Retained, err error) {
	err = d.forWallet(bucketRetained, wallet, func(_, v []byte) {
		rs = append(rs, NewRetained(v))
	})
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp < rs[j].Timestamp })
	return rs, err
}

// RmWallet removes all of the wallet's bookkeeping records, i.e. handled
// message marks and retained messages. Connections and conversations must be
// removed by their owners before.
func (d *DB) RmWallet(wallet string) (err error) {
	defer err2.Handle(&err, "rm wallet records")

	prefix := try.To1(walletPrefix(wallet))
	try.To(d.rmPrefix(bucketHandled, prefix))
	try.To(d.rmPrefix(bucketRetained, prefix))
	return nil
}
